package fields

import "time"

// Config holds every knob authgate reads. Secrets come from env overrides in
// deployments; the yaml file carries the rest. See cli/config.go for loading.
type Config struct {
	Port    string `json:"port" yaml:"port"`
	IsDebug bool   `json:"is_debug" yaml:"is_debug"`

	// Session cookie.
	SessionSecret    string `json:"session_secret" yaml:"session_secret" binding:"required,min=32"`
	CookieName       string `json:"cookie_name" yaml:"cookie_name"`
	CookieSecure     bool   `json:"cookie_secure" yaml:"cookie_secure"`
	SessionMaxAgeSec int    `json:"session_max_age_seconds" yaml:"session_max_age_seconds"`

	// Persistence.
	DatabasePath string `json:"database_path" yaml:"database_path"`
	RedisAddress string `json:"redis_address" yaml:"redis_address"`

	// OAuth providers. RedirectBaseURL is the public origin of this service;
	// callbacks land on <base>/api/auth/callback/<provider>.
	RedirectBaseURL     string `json:"redirect_base_url" yaml:"redirect_base_url" binding:"required,url"`
	SuccessRedirectPath string `json:"success_redirect_path" yaml:"success_redirect_path"`
	ErrorRedirectPath   string `json:"error_redirect_path" yaml:"error_redirect_path"`
	GoogleClientID      string `json:"google_client_id" yaml:"google_client_id"`
	GoogleClientSecret  string `json:"google_client_secret" yaml:"google_client_secret"`
	TwitterClientID     string `json:"twitter_client_id" yaml:"twitter_client_id"`
	TwitterClientSecret string `json:"twitter_client_secret" yaml:"twitter_client_secret"`

	// Upstream calls (token exchange, userinfo, store round-trips).
	UpstreamTimeoutMs int `json:"upstream_timeout_ms" yaml:"upstream_timeout_ms"`

	// Login initiations allowed per IP per minute. Zero disables limiting.
	LoginRateLimit int `json:"login_rate_limit" yaml:"login_rate_limit"`

	LogSamplingTickMs  int `json:"log_sampling_tick_ms" yaml:"log_sampling_tick_ms"`
	LogSamplingAfterMs int `json:"log_sampling_after_ms" yaml:"log_sampling_after_ms"`

	OtelEnabled        bool    `json:"otel_enabled" yaml:"otel_enabled"`
	OtelEndpoint       string  `json:"otel_endpoint" yaml:"otel_endpoint"`
	OtelInsecure       bool    `json:"otel_insecure" yaml:"otel_insecure"`
	OtelSampleRate     float64 `json:"otel_sample_rate" yaml:"otel_sample_rate"`
	OtelServiceName    string  `json:"otel_service_name" yaml:"otel_service_name"`
	OtelServiceVersion string  `json:"otel_service_version" yaml:"otel_service_version"`
}

const (
	DefaultCookieName    = "authgate_session"
	DefaultSessionMaxAge = 7 * 24 * 60 * 60 // one week, in seconds
)

// ApplyDefaults fills zero values. Validation happens separately so a caller
// can distinguish "missing" from "defaulted".
func (c *Config) ApplyDefaults() {
	if c.Port == "" {
		c.Port = ":8080"
	}
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	if c.SessionMaxAgeSec <= 0 {
		c.SessionMaxAgeSec = DefaultSessionMaxAge
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "authgate.db"
	}
	if c.SuccessRedirectPath == "" {
		c.SuccessRedirectPath = "/"
	}
	if c.ErrorRedirectPath == "" {
		c.ErrorRedirectPath = "/login"
	}
	if c.UpstreamTimeoutMs <= 0 {
		c.UpstreamTimeoutMs = 10000
	}
}

func (c Config) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeSec) * time.Second
}

func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMs) * time.Millisecond
}
