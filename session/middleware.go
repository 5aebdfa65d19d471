package session

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/soluspay/authgate/fields"
)

const ctxKey = "authgate_session"

// Manager decodes the inbound session cookie before a handler runs and
// guarantees write-back on every exit path, error returns included.
type Manager struct {
	codec      *codec
	cookieName string
	secure     bool
	maxAge     time.Duration
	logger     *logrus.Logger
}

func NewManager(cfg fields.Config, logger *logrus.Logger) (*Manager, error) {
	c, err := newCodec(cfg.SessionSecret)
	if err != nil {
		return nil, err
	}
	return &Manager{
		codec:      c,
		cookieName: cfg.CookieName,
		secure:     cfg.CookieSecure,
		maxAge:     cfg.SessionMaxAge(),
		logger:     logger,
	}, nil
}

// Middleware makes the decrypted session available via FromCtx. A missing,
// malformed, or wrongly-keyed cookie degrades to an anonymous session, never
// to an error.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := m.Decode(c.Cookies(m.cookieName))
		c.Locals(ctxKey, sess)
		defer m.persist(c, sess)
		return c.Next()
	}
}

// FromCtx returns the request's session. It is never nil under the
// middleware; outside of it an empty session is returned so handlers can be
// exercised in isolation.
func FromCtx(c *fiber.Ctx) *Session {
	if v := c.Locals(ctxKey); v != nil {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return &Session{}
}

// Decode is lenient by contract: any failure yields a fresh anonymous
// session. Expiry is checked against the sealed timestamp, not the cookie's
// client-controlled max-age.
func (m *Manager) Decode(raw string) *Session {
	if raw == "" {
		return &Session{}
	}
	plain, err := m.codec.Open(raw)
	if err != nil {
		m.logger.WithError(err).Debug("session cookie rejected")
		return &Session{}
	}
	var w wireSession
	if err := json.Unmarshal(plain, &w); err != nil {
		return &Session{}
	}
	if !w.ExpiresAt.IsZero() && time.Now().After(w.ExpiresAt) {
		return &Session{}
	}
	return &Session{user: w.User, pending: w.Pending}
}

// Encode seals the session with a TTL measured from now: the session slides
// forward on every write.
func (m *Manager) Encode(s *Session) (string, error) {
	w := wireSession{
		User:      s.user,
		Pending:   s.pending,
		ExpiresAt: time.Now().Add(m.maxAge),
	}
	plain, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return m.codec.Seal(plain)
}

// CookieName exposes the configured name for tests and logout docs.
func (m *Manager) CookieName() string {
	return m.cookieName
}

func (m *Manager) persist(c *fiber.Ctx, s *Session) {
	switch {
	case s.Destroyed():
		c.Cookie(&fiber.Cookie{
			Name:     m.cookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HTTPOnly: true,
			Secure:   m.secure,
			SameSite: "Lax",
		})
	case s.Dirty():
		value, err := m.Encode(s)
		if err != nil {
			m.logger.WithError(err).Error("session write-back failed")
			return
		}
		c.Cookie(&fiber.Cookie{
			Name:     m.cookieName,
			Value:    value,
			Path:     "/",
			MaxAge:   int(m.maxAge.Seconds()),
			HTTPOnly: true,
			Secure:   m.secure,
			SameSite: "Lax",
		})
	}
}
