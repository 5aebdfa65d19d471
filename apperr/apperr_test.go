package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unsupported provider", ErrUnsupportedProvider, http.StatusBadRequest, "unsupported_provider"},
		{"invalid state", ErrInvalidState, http.StatusForbidden, "invalid_state"},
		{"upstream timeout", ErrUpstreamTimeout, http.StatusGatewayTimeout, "upstream_timeout"},
		{"wrapped upstream", Wrap(errors.New("dial tcp: i/o timeout"), ErrUpstream, ""), http.StatusBadGateway, "upstream_error"},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.status {
				t.Errorf("Status() = %d, want %d", got, tt.status)
			}
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code() = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestWrapMatchesBase(t *testing.T) {
	inner := errors.New("google token exchange failed: 500")
	err := Wrap(inner, ErrUpstream, "")
	if !errors.Is(err, ErrUpstream) {
		t.Error("wrapped error should match its base via errors.Is")
	}
	if !errors.Is(err, inner) {
		t.Error("wrapped error should still unwrap to the original cause")
	}
	wrapped := fmt.Errorf("callback: %w", err)
	if !errors.Is(wrapped, ErrUpstream) {
		t.Error("base match should survive further wrapping")
	}
}

func TestPayloadNeverLeaksInternalDetail(t *testing.T) {
	err := Wrap(errors.New("pq: connection refused host=10.0.0.3"), ErrUpstream, "")
	payload := Payload(err)
	if payload["error"] != "authentication failed" {
		t.Errorf("payload leaked internal detail: %v", payload["error"])
	}

	untyped := errors.New("panic: nil pointer at oauth.go:42")
	payload = Payload(untyped)
	if payload["error"] != "authentication failed" {
		t.Errorf("untyped error leaked detail: %v", payload["error"])
	}
	if payload["code"] != "internal_error" {
		t.Errorf("untyped error code = %v", payload["code"])
	}
}
