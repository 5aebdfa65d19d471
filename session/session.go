package session

import (
	"time"

	"github.com/soluspay/authgate/fields"
)

// PendingOAuth holds the verifier/state pair written at initiation and
// consumed exactly once at callback.
type PendingOAuth struct {
	Provider     string    `json:"provider"`
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the per-browser state carried in the encrypted cookie. It is one
// of three shapes: anonymous (zero value), pending OAuth, or authenticated.
// Mutation goes through methods so an authenticated session can never carry a
// stale pending entry.
type Session struct {
	user    *fields.PublicUser
	pending *PendingOAuth

	dirty     bool
	destroyed bool
}

// User returns the authenticated user, or nil for anonymous sessions.
func (s *Session) User() *fields.PublicUser {
	if s == nil {
		return nil
	}
	return s.user
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.user != nil
}

// BeginOAuth records an in-flight authorization for provider, replacing any
// previous pending entry.
func (s *Session) BeginOAuth(p PendingOAuth) {
	s.pending = &p
	s.dirty = true
}

// TakePending returns and clears the pending entry if it belongs to provider.
// The clear happens even on a later verification failure: a state value is
// single-use.
func (s *Session) TakePending(provider string) (PendingOAuth, bool) {
	if s.pending == nil || s.pending.Provider != provider {
		return PendingOAuth{}, false
	}
	p := *s.pending
	s.pending = nil
	s.dirty = true
	return p, true
}

// PendingFor reports whether an in-flight authorization exists for provider
// without consuming it.
func (s *Session) PendingFor(provider string) bool {
	return s != nil && s.pending != nil && s.pending.Provider == provider
}

// Authenticate transitions to the authenticated state and drops any pending
// entry so the two cannot coexist.
func (s *Session) Authenticate(user fields.PublicUser) {
	s.user = &user
	s.pending = nil
	s.dirty = true
}

// Destroy wipes the session; the middleware answers with an expired cookie.
func (s *Session) Destroy() {
	s.user = nil
	s.pending = nil
	s.destroyed = true
	s.dirty = true
}

func (s *Session) Dirty() bool {
	return s != nil && s.dirty
}

func (s *Session) Destroyed() bool {
	return s != nil && s.destroyed
}

// wireSession is the sealed JSON shape. ExpiresAt is enforced on decode so a
// replayed cookie cannot outlive the configured TTL even if the client keeps
// it past max-age.
type wireSession struct {
	User      *fields.PublicUser `json:"user,omitempty"`
	Pending   *PendingOAuth      `json:"pending,omitempty"`
	ExpiresAt time.Time          `json:"exp"`
}
