package apperr

import (
	"errors"
	"net/http"
)

// Error represents a typed, status-aware application error.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"error,omitempty"`
	Status  int            `json:"-"`
	Fields  map[string]any `json:"fields,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	return "error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match any wrapped copy of a taxonomy base by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches err to a copy of base. The wrapped error is for server-side
// logs only; Payload never exposes it when base carries its own message.
func Wrap(err error, base *Error, message string) *Error {
	if err == nil {
		return nil
	}
	if base == nil {
		base = ErrInternal
	}
	copy := *base
	if message != "" {
		copy.Message = message
	}
	copy.Err = err
	return &copy
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

func Status(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func Code(err error) string {
	if e, ok := As(err); ok && e.Code != "" {
		return e.Code
	}
	return "internal_error"
}

// Payload is the client-facing body. Untyped errors collapse to a generic
// internal_error so upstream/library detail never crosses the boundary.
func Payload(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	if e, ok := As(err); ok {
		msg := e.Message
		if msg == "" {
			msg = e.Code
		}
		payload := map[string]any{
			"code":  Code(e),
			"error": msg,
		}
		if len(e.Fields) > 0 {
			payload["fields"] = e.Fields
		}
		return payload
	}
	return map[string]any{
		"code":  "internal_error",
		"error": "authentication failed",
	}
}

var (
	ErrBadRequest   = New("bad_request", http.StatusBadRequest, "")
	ErrValidation   = New("validation_error", http.StatusBadRequest, "")
	ErrUnauthorized = New("unauthorized", http.StatusUnauthorized, "")
	ErrForbidden    = New("forbidden", http.StatusForbidden, "")
	ErrNotFound     = New("not_found", http.StatusNotFound, "")
	ErrInternal     = New("internal_error", http.StatusInternalServerError, "")
	ErrDatabase     = New("database_error", http.StatusInternalServerError, "")
	ErrRateLimited  = New("rate_limited", http.StatusTooManyRequests, "too many login attempts")

	// OAuth flow taxonomy.
	ErrUnsupportedProvider = New("unsupported_provider", http.StatusBadRequest, "Unsupported provider")
	ErrInvalidState        = New("invalid_state", http.StatusForbidden, "login attempt could not be verified, restart login")
	ErrUpstream            = New("upstream_error", http.StatusBadGateway, "authentication failed")
	ErrUpstreamTimeout     = New("upstream_timeout", http.StatusGatewayTimeout, "authentication failed")
	ErrAuthFailed          = New("authentication_failed", http.StatusInternalServerError, "authentication failed")
	// ErrDuplicateUser is recovered by re-fetching the winning row; it must
	// never reach a response body.
	ErrDuplicateUser = New("duplicate_user", http.StatusConflict, "")
)
