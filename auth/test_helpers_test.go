package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/soluspay/authgate/fields"
	"github.com/soluspay/authgate/session"
	"github.com/soluspay/authgate/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	app *fiber.App
	svc *Service
	db  *gorm.DB
	mgr *session.Manager
}

// newTestEnv wires the handlers exactly like cli.GetMainEngine does, against a
// throwaway sqlite file and no redis.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := fields.Config{
		SessionSecret:       testSecret,
		RedirectBaseURL:     "https://auth.example.com",
		GoogleClientID:      "google-client",
		GoogleClientSecret:  "google-secret",
		TwitterClientID:     "twitter-client",
		TwitterClientSecret: "twitter-secret",
	}
	cfg.ApplyDefaults()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := store.Open(filepath.Join(t.TempDir(), "auth_test.db"), false)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	mgr, err := session.NewManager(cfg, logger)
	if err != nil {
		t.Fatalf("creating session manager: %v", err)
	}
	svc := NewService(db, nil, logger, cfg, mgr)

	app := fiber.New()
	api := app.Group("/api/auth", mgr.Middleware())
	api.Get("/session", svc.GetSession)
	api.Get("/login", svc.LoginRateLimiter(), svc.InitiateOAuth)
	api.Get("/callback/:provider", svc.OAuthCallback)
	api.Post("/logout", svc.Logout)

	return &testEnv{app: app, svc: svc, db: db, mgr: mgr}
}

// pointProviderAt redirects a provider's token and userinfo endpoints to a
// fake server so callback tests never leave the process.
func (e *testEnv) pointProviderAt(t *testing.T, name string, tokenStatus int, tokenJSON, profileJSON string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			w.WriteHeader(tokenStatus)
			io.WriteString(w, tokenJSON)
		case "/userinfo":
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, profileJSON)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	p, ok := e.svc.Providers[name]
	if !ok {
		t.Fatalf("provider %q not configured in test env", name)
	}
	p.OAuth.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInHeader,
	}
	p.UserInfoURL = srv.URL + "/userinfo"
}

func (e *testEnv) get(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func (e *testEnv) post(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (e *testEnv) sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == e.mgr.CookieName() {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	body := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}

func locationURL(t *testing.T, resp *http.Response) *url.URL {
	t.Helper()
	loc := resp.Header.Get("Location")
	if loc == "" {
		t.Fatalf("expected a Location header, got none (status %d)", resp.StatusCode)
	}
	u, err := url.Parse(loc)
	if err != nil {
		t.Fatalf("parsing Location %q: %v", loc, err)
	}
	return u
}

// loginTwitter runs the initiation leg and returns the state the provider
// would echo back plus the session cookie carrying the verifier.
func (e *testEnv) loginTwitter(t *testing.T) (string, *http.Cookie) {
	t.Helper()
	resp := e.get(t, "/api/auth/login?provider=twitter", nil)
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("twitter login status = %d, want 302", resp.StatusCode)
	}
	state := locationURL(t, resp).Query().Get("state")
	if state == "" {
		t.Fatal("authorization URL carries no state")
	}
	cookie := e.sessionCookie(resp)
	if cookie == nil {
		t.Fatal("twitter login set no session cookie")
	}
	return state, cookie
}

func (e *testEnv) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	return n
}
