package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/soluspay/authgate/auth"
	"github.com/soluspay/authgate/fields"
	"github.com/soluspay/authgate/gateway"
	"github.com/soluspay/authgate/session"
	"github.com/soluspay/authgate/store"
)

func isTestRun() bool {
	return strings.HasSuffix(os.Args[0], ".test")
}

func firstExistingPath(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func loadConfig() (fields.Config, error) {
	var cfg fields.Config

	configPath := firstExistingPath(os.Getenv("AUTHGATE_CONFIG"), "./config.yaml", "../config.yaml")
	if configPath == "" {
		if !isTestRun() {
			logrusLogger.Warn("config.yaml not found, relying on env overrides")
		}
	} else {
		configData, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(configData, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config yaml: %w", err)
		}
		logrusLogger.Printf("Loaded config from %s", configPath)
	}

	applyEnvOverrides(&cfg)
	cfg.ApplyDefaults()
	return cfg, nil
}

// applyEnvOverrides lets deployments inject secrets without writing them to
// the yaml file. Env always wins over file values.
func applyEnvOverrides(cfg *fields.Config) {
	setIfEnv := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setIfEnv(&cfg.Port, "AUTHGATE_PORT")
	setIfEnv(&cfg.SessionSecret, "AUTHGATE_SESSION_SECRET")
	setIfEnv(&cfg.DatabasePath, "AUTHGATE_DATABASE_PATH")
	setIfEnv(&cfg.RedisAddress, "AUTHGATE_REDIS_ADDRESS")
	setIfEnv(&cfg.RedirectBaseURL, "AUTHGATE_REDIRECT_BASE_URL")
	setIfEnv(&cfg.GoogleClientID, "AUTHGATE_GOOGLE_CLIENT_ID")
	setIfEnv(&cfg.GoogleClientSecret, "AUTHGATE_GOOGLE_CLIENT_SECRET")
	setIfEnv(&cfg.TwitterClientID, "AUTHGATE_TWITTER_CLIENT_ID")
	setIfEnv(&cfg.TwitterClientSecret, "AUTHGATE_TWITTER_CLIENT_SECRET")

	if v := os.Getenv("AUTHGATE_COOKIE_SECURE"); v != "" {
		if secure, err := strconv.ParseBool(v); err == nil {
			cfg.CookieSecure = secure
		}
	}
	if v := os.Getenv("AUTHGATE_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.IsDebug = debug
		}
	}
}

func validateConfig(cfg fields.Config) error {
	if err := fields.ValidateStruct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.GoogleClientID == "" && cfg.TwitterClientID == "" {
		return errors.New("no oauth provider configured")
	}
	return nil
}

// GetMainEngine function responsible for getting all of our routes to be delivered for fiber
func GetMainEngine() *fiber.App {
	route := fiber.New(fiber.Config{DisableStartupMessage: !authConfig.IsDebug})
	route.Use(gateway.RequestID())
	route.Use(gateway.RequestLogger(logrusLogger, logSampling))
	route.Use(gateway.Instrumentation())

	route.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	route.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok", "tracing": otelEnabled})
	})

	api := route.Group("/api/auth", sessionManager.Middleware())
	{
		api.Get("/session", authService.GetSession)
		api.Get("/login", authService.LoginRateLimiter(), authService.InitiateOAuth)
		api.Get("/login/:provider", authService.LoginRateLimiter(), authService.InitiateOAuth)
		api.Get("/callback/:provider", authService.OAuthCallback)
		api.Post("/logout", authService.Logout)
	}
	return route
}

func init() {
	if isTestRun() {
		return
	}
	var err error

	authConfig, err = loadConfig()
	if err != nil {
		logrusLogger.Fatalf("error loading config: %v", err)
	}
	configureLogger(authConfig)
	if err := validateConfig(authConfig); err != nil {
		logrusLogger.Fatalf("error in config: %v", err)
	}

	initOTel(context.Background(), authConfig, logrusLogger)

	database, err = store.Open(authConfig.DatabasePath, authConfig.IsDebug)
	if err != nil {
		logrusLogger.Fatalf("error in connecting to db: %v", err)
	}

	if authConfig.RedisAddress != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: authConfig.RedisAddress})
	} else {
		logrusLogger.Warn("redis not configured, login rate limiting disabled")
	}

	sessionManager, err = session.NewManager(authConfig, logrusLogger)
	if err != nil {
		logrusLogger.Fatalf("error in session manager: %v", err)
	}
	authService = auth.NewService(database, redisClient, logrusLogger, authConfig, sessionManager)
}
