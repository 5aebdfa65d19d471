// Package auth implements the session-backed OAuth login flow: initiation,
// provider callback, session query and logout.
package auth

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/soluspay/authgate/fields"
	"github.com/soluspay/authgate/session"
)

// Service carries every dependency the auth handlers need. Provider clients
// are constructed here and injected, never held as package globals, so tests
// can point them at fake endpoints.
type Service struct {
	Db        *gorm.DB
	Redis     *redis.Client
	Logger    *logrus.Logger
	Config    fields.Config
	Sessions  *session.Manager
	Providers map[string]*Provider
}

func NewService(db *gorm.DB, rdb *redis.Client, logger *logrus.Logger, cfg fields.Config, sessions *session.Manager) *Service {
	return &Service{
		Db:        db,
		Redis:     rdb,
		Logger:    logger,
		Config:    cfg,
		Sessions:  sessions,
		Providers: BuildProviders(cfg),
	}
}
