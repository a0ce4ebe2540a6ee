package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	if cfg.ClientID == "" {
		cfg.ClientID = "client-id"
	}
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = "http://localhost:3000/callback"
	}
	cfg.Logger = zerolog.Nop()
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{RedirectURI: "http://localhost/cb"}); err == nil {
		t.Fatalf("expected error without ClientID")
	}
	if _, err := NewClient(Config{ClientID: "id"}); err == nil {
		t.Fatalf("expected error without RedirectURI")
	}
}

func TestGenerateVerifier(t *testing.T) {
	a, err := GenerateVerifier()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(a) != 64 {
		t.Fatalf("verifier length %d, want 64", len(a))
	}
	for _, c := range a {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		default:
			t.Fatalf("verifier contains %q", c)
		}
	}
	b, err := GenerateVerifier()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a == b {
		t.Fatalf("two verifiers are identical")
	}
}

func TestChallenge(t *testing.T) {
	// Appendix B of RFC 7636.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	if got := Challenge(verifier); got != want {
		t.Fatalf("Challenge() = %q, want %q", got, want)
	}
}

func TestAuthorizeURL(t *testing.T) {
	client := newTestClient(t, Config{
		Scopes:          "user-library-read streaming",
		AccountsBaseURL: "https://accounts.example.com",
	})

	raw := client.Auth().AuthorizeURL("state-123", "challenge-abc")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}
	if u.Host != "accounts.example.com" || u.Path != "/authorize" {
		t.Fatalf("unexpected endpoint: %s", raw)
	}
	q := u.Query()
	want := map[string]string{
		"response_type":         "code",
		"client_id":             "client-id",
		"scope":                 "user-library-read streaming",
		"redirect_uri":          "http://localhost:3000/callback",
		"state":                 "state-123",
		"code_challenge_method": "S256",
		"code_challenge":        "challenge-abc",
	}
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Fatalf("param %s = %q, want %q", k, got, v)
		}
	}
}

func TestExchange(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/token" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
		json.NewEncoder(w).Encode(Token{
			AccessToken:  "access-token",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
			RefreshToken: "refresh-token",
		})
	}))
	defer srv.Close()

	client := newTestClient(t, Config{AccountsBaseURL: srv.URL})
	token, err := client.Auth().Exchange(context.Background(), "auth-code", "the-verifier")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token.AccessToken != "access-token" || token.RefreshToken != "refresh-token" {
		t.Fatalf("unexpected token: %+v", token)
	}

	want := map[string]string{
		"grant_type":    "authorization_code",
		"code":          "auth-code",
		"redirect_uri":  "http://localhost:3000/callback",
		"client_id":     "client-id",
		"code_verifier": "the-verifier",
	}
	for k, v := range want {
		if got := form.Get(k); got != v {
			t.Fatalf("form field %s = %q, want %q", k, got, v)
		}
	}
}

func TestExchangeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid authorization code"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, Config{AccountsBaseURL: srv.URL})
	_, err := client.Auth().Exchange(context.Background(), "bad-code", "verifier")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "Invalid authorization code" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestRefresh(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		json.NewEncoder(w).Encode(Token{AccessToken: "new-access", ExpiresIn: 3600})
	}))
	defer srv.Close()

	client := newTestClient(t, Config{AccountsBaseURL: srv.URL})
	token, err := client.Auth().Refresh(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if token.AccessToken != "new-access" {
		t.Fatalf("unexpected token: %+v", token)
	}
	if form.Get("grant_type") != "refresh_token" || form.Get("refresh_token") != "old-refresh" {
		t.Fatalf("unexpected form: %v", form)
	}
}

func TestExchangeMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestClient(t, Config{AccountsBaseURL: srv.URL})
	if _, err := client.Auth().Exchange(context.Background(), "code", "verifier"); err == nil {
		t.Fatalf("expected error on empty token response")
	}
}
