package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/soluspay/authgate/apperr"
	"github.com/soluspay/authgate/fields"
	"github.com/soluspay/authgate/session"
)

// InitiateOAuth redirects the browser to the provider's authorization page.
// GET /api/auth/login?provider=google|twitter
//
// Google needs no session mutation here; Twitter's PKCE verifier and the
// anti-CSRF state are parked in the session until the callback consumes them.
func (s *Service) InitiateOAuth(c *fiber.Ctx) error {
	name := strings.ToLower(strings.TrimSpace(c.Query("provider")))
	if name == "" {
		name = strings.ToLower(c.Params("provider"))
	}

	p, ok := s.Providers[name]
	if !ok {
		fields.CountLogin(name, "unsupported")
		s.Logger.WithField("provider", name).Warn("login with unsupported provider")
		return respondError(c, apperr.ErrUnsupportedProvider)
	}

	state := uuid.NewString()
	var authURL string
	if p.UsePKCE {
		verifier := oauth2.GenerateVerifier()
		sess := session.FromCtx(c)
		sess.BeginOAuth(session.PendingOAuth{
			Provider:     name,
			State:        state,
			CodeVerifier: verifier,
			CreatedAt:    time.Now(),
		})
		authURL = p.AuthCodeURL(state, verifier)
	} else {
		authURL = p.AuthCodeURL(state, "")
	}

	if authURL == "" {
		// Misconfiguration, not user error. Detail stays in the log.
		s.Logger.WithField("provider", name).Error("empty authorization URL")
		fields.CountLogin(name, "failed")
		return respondError(c, apperr.ErrAuthFailed)
	}

	fields.CountLogin(name, "redirected")
	return c.Redirect(authURL, fiber.StatusFound)
}
