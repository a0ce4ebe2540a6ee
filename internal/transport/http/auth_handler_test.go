package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"blindtest-service/internal/app"
	"blindtest-service/internal/domain"
	"blindtest-service/internal/infra/memory"
	"blindtest-service/internal/spotify"
	"github.com/rs/zerolog"
)

type authFixture struct {
	handler   *AuthHandler
	verifiers *memory.VerifierStore
	tokens    *memory.TokenStore
	upstream  *httptest.Server
}

func newAuthFixture(t *testing.T, upstream http.Handler) *authFixture {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client, err := spotify.NewClient(spotify.Config{
		ClientID:        "client-id",
		RedirectURI:     "http://localhost:3000/callback",
		Scopes:          "user-library-read streaming",
		APIBaseURL:      srv.URL,
		AccountsBaseURL: srv.URL,
		Logger:          zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	fetcher := memory.NewStaticLibraryFetcher(nil)
	policy := memory.CachePolicy{TTL: time.Hour, MinDurationMS: 30000, MinSongsToPlay: 10}
	game := app.NewGameService(
		memory.NewLibraryCache(fetcher, policy),
		memory.NewHighScoreStore(),
		app.NewSettingsStore(domain.DefaultSettings()),
		memory.NewSessionStore(),
		app.GameConfig{QuizSeconds: 15, FeedbackDelay: time.Hour, TickInterval: time.Hour},
		zerolog.Nop(),
	)

	verifiers := memory.NewVerifierStore()
	tokens := memory.NewTokenStore()
	return &authFixture{
		handler:   NewAuthHandler(client, verifiers, tokens, game, zerolog.Nop()),
		verifiers: verifiers,
		tokens:    tokens,
		upstream:  srv,
	}
}

func TestLoginRedirects(t *testing.T) {
	fx := newAuthFixture(t, http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	fx.handler.Login(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != "/authorize" {
		t.Fatalf("unexpected redirect path %s", loc.Path)
	}
	q := loc.Query()
	state := q.Get("state")
	if state == "" || q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
		t.Fatalf("incomplete authorize params: %v", q)
	}

	verifier, ok := fx.verifiers.Take(state)
	if !ok {
		t.Fatalf("verifier not stored for state")
	}
	if got := spotify.Challenge(verifier); got != q.Get("code_challenge") {
		t.Fatalf("challenge does not match verifier")
	}
}

func TestCallbackStoresCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostForm.Get("code_verifier"); got != "verifier-1" {
			t.Errorf("code_verifier = %q", got)
		}
		if got := r.PostForm.Get("code"); got != "auth-code" {
			t.Errorf("code = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "user-1", "display_name": "Alice"}`))
	})
	fx := newAuthFixture(t, mux)
	fx.verifiers.Put("state-1", "verifier-1")

	req := httptest.NewRequest(http.MethodGet, "/callback?code=auth-code&state=state-1", nil)
	rec := httptest.NewRecorder()
	fx.handler.Callback(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil || user.ID != "user-1" {
		t.Fatalf("unexpected body: %s (%v)", rec.Body.String(), err)
	}

	creds, ok := fx.tokens.Credentials("user-1")
	if !ok || creds.AccessToken != "access-1" || creds.RefreshToken != "refresh-1" {
		t.Fatalf("credentials not stored: %+v (ok=%v)", creds, ok)
	}
	if _, ok := fx.verifiers.Take("state-1"); ok {
		t.Fatalf("verifier not consumed")
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	fx := newAuthFixture(t, http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/callback?code=auth-code&state=nope", nil)
	rec := httptest.NewRecorder()
	fx.handler.Callback(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCallbackRejectsMissingParams(t *testing.T) {
	fx := newAuthFixture(t, http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/callback?state=state-1", nil)
	rec := httptest.NewRecorder()
	fx.handler.Callback(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCallbackExchangeFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_description": "Invalid authorization code"}`))
	})
	fx := newAuthFixture(t, mux)
	fx.verifiers.Put("state-1", "verifier-1")

	req := httptest.NewRequest(http.MethodGet, "/callback?code=bad&state=state-1", nil)
	rec := httptest.NewRecorder()
	fx.handler.Callback(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if _, ok := fx.tokens.Credentials("user-1"); ok {
		t.Fatalf("credentials stored on failed exchange")
	}
}

func TestLogout(t *testing.T) {
	fx := newAuthFixture(t, http.NotFoundHandler())
	fx.tokens.Put("user-1", domain.Credentials{AccessToken: "access-1"})

	req := httptest.NewRequest(http.MethodGet, "/logout?userId=user-1", nil)
	rec := httptest.NewRecorder()
	fx.handler.Logout(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, ok := fx.tokens.Credentials("user-1"); ok {
		t.Fatalf("credentials survived logout")
	}

	req = httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec = httptest.NewRecorder()
	fx.handler.Logout(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %d", rec.Code)
	}
}
