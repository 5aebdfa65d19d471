package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/soluspay/authgate/auth"
	"github.com/soluspay/authgate/fields"
	"github.com/soluspay/authgate/gateway"
	"github.com/soluspay/authgate/session"
)

const shutdownTimeout = 5 * time.Second

var authConfig fields.Config
var logrusLogger = logrus.New()
var database *gorm.DB
var redisClient *redis.Client
var sessionManager *session.Manager
var authService *auth.Service
var logSampling gateway.LogSamplingConfig
var otelShutdown func(context.Context) error
var otelEnabled bool

func main() {
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
			defer cancel()
			if err := otelShutdown(ctx); err != nil {
				logrusLogger.WithError(err).Warn("otel shutdown failed")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := GetMainEngine()
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logrusLogger.WithError(err).Warn("shutdown did not finish cleanly")
		}
	}()

	logrusLogger.WithField("port", authConfig.Port).Info("authgate listening")
	if err := app.Listen(authConfig.Port); err != nil {
		logrusLogger.Fatal(err)
	}
}
