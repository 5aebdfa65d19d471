package main

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/soluspay/authgate/auth"
	"github.com/soluspay/authgate/fields"
	"github.com/soluspay/authgate/session"
)

func TestApplyEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("AUTHGATE_SESSION_SECRET", "env-secret-0123456789abcdef0123456789")
	t.Setenv("AUTHGATE_COOKIE_SECURE", "true")
	t.Setenv("AUTHGATE_PORT", ":9090")

	cfg := fields.Config{
		SessionSecret: "file-secret",
		Port:          ":8080",
	}
	applyEnvOverrides(&cfg)

	if cfg.SessionSecret != "env-secret-0123456789abcdef0123456789" {
		t.Fatalf("session secret = %q, env must win", cfg.SessionSecret)
	}
	if !cfg.CookieSecure {
		t.Fatal("cookie_secure override not applied")
	}
	if cfg.Port != ":9090" {
		t.Fatalf("port = %q", cfg.Port)
	}
}

func TestLoadConfigFromYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `session_secret: "file-secret-0123456789abcdef012345"
redirect_base_url: "https://auth.example.com"
google_client_id: "gid"
login_rate_limit: 30
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AUTHGATE_CONFIG", path)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GoogleClientID != "gid" || cfg.LoginRateLimit != 30 {
		t.Fatalf("yaml values not loaded: %+v", cfg)
	}
	if cfg.CookieName != fields.DefaultCookieName {
		t.Fatalf("defaults not applied, cookie name = %q", cfg.CookieName)
	}
	if cfg.SessionMaxAgeSec != fields.DefaultSessionMaxAge {
		t.Fatalf("session max age = %d", cfg.SessionMaxAgeSec)
	}
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("config should validate: %v", err)
	}
}

func TestValidateConfigRejectsShortSecret(t *testing.T) {
	cfg := fields.Config{
		SessionSecret:   "too-short",
		RedirectBaseURL: "https://auth.example.com",
		GoogleClientID:  "gid",
	}
	cfg.ApplyDefaults()
	if err := validateConfig(cfg); err == nil {
		t.Fatal("a 9-byte session secret must be rejected")
	}
}

func TestHealthReportsTracingState(t *testing.T) {
	authConfig = fields.Config{
		SessionSecret:   "test-secret-0123456789abcdef012345",
		RedirectBaseURL: "https://auth.example.com",
		GoogleClientID:  "gid",
	}
	authConfig.ApplyDefaults()

	var err error
	sessionManager, err = session.NewManager(authConfig, logrusLogger)
	if err != nil {
		t.Fatal(err)
	}
	authService = auth.NewService(nil, nil, logrusLogger, authConfig, sessionManager)

	app := GetMainEngine()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	defer resp.Body.Close()
	body := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf(`body["status"] = %v`, body["status"])
	}
	// No exporter is configured under test, so tracing must report off.
	if body["tracing"] != false {
		t.Fatalf(`body["tracing"] = %v, want false`, body["tracing"])
	}
}

func TestValidateConfigRequiresAProvider(t *testing.T) {
	cfg := fields.Config{
		SessionSecret:   "file-secret-0123456789abcdef012345",
		RedirectBaseURL: "https://auth.example.com",
	}
	cfg.ApplyDefaults()
	if err := validateConfig(cfg); err == nil {
		t.Fatal("a config with no provider must be rejected")
	}
}
