package auth

import (
	"testing"

	"github.com/soluspay/authgate/fields"
)

func TestBuildProvidersSkipsUnconfigured(t *testing.T) {
	cfg := fields.Config{
		RedirectBaseURL: "https://auth.example.com/",
		GoogleClientID:  "google-client",
	}
	cfg.ApplyDefaults()

	providers := BuildProviders(cfg)
	if _, ok := providers["twitter"]; ok {
		t.Fatal("twitter enabled without a client id")
	}
	g, ok := providers["google"]
	if !ok {
		t.Fatal("google missing")
	}
	// A trailing slash on the base URL must not double up in the callback.
	if g.OAuth.RedirectURL != "https://auth.example.com/api/auth/callback/google" {
		t.Fatalf("redirect url = %q", g.OAuth.RedirectURL)
	}
	if g.UsePKCE {
		t.Fatal("google must not use PKCE")
	}
}

func TestParseTwitterProfileFallsBackToUsername(t *testing.T) {
	p, err := parseTwitterProfile([]byte(`{"data":{"id":"t-9","username":"just_handle"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "just_handle" {
		t.Fatalf("name = %q, want the username fallback", p.Name)
	}
	if p.Email != "" {
		t.Fatalf("twitter profile must not carry an email, got %q", p.Email)
	}
}

func TestParseGoogleProfileRejectsEmptyBody(t *testing.T) {
	if _, err := parseGoogleProfile(nil); err == nil {
		t.Fatal("empty body must be an error")
	}
}
