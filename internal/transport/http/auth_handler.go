package http

import (
	"encoding/json"
	"net/http"

	"blindtest-service/internal/app"
	"blindtest-service/internal/domain"
	"blindtest-service/internal/spotify"
	"github.com/rs/zerolog"
)

// VerifierStore holds one-shot PKCE verifiers between redirect and callback.
type VerifierStore interface {
	Put(state, verifier string)
	Take(state string) (string, bool)
}

// CredentialStore keeps per-user tokens.
type CredentialStore interface {
	Put(userID string, creds domain.Credentials)
	Credentials(userID string) (domain.Credentials, bool)
	Delete(userID string)
}

// AuthHandler implements the PKCE login round-trip against the streaming
// service's accounts endpoints.
type AuthHandler struct {
	client    *spotify.Client
	verifiers VerifierStore
	tokens    CredentialStore
	game      *app.GameService
	logger    zerolog.Logger
}

func NewAuthHandler(client *spotify.Client, verifiers VerifierStore, tokens CredentialStore, game *app.GameService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		client:    client,
		verifiers: verifiers,
		tokens:    tokens,
		game:      game,
		logger:    logger.With().Str("component", "auth").Logger(),
	}
}

// Login generates a verifier/challenge pair, parks the verifier under a
// random state, and redirects the browser to the authorize endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	verifier, err := spotify.GenerateVerifier()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	state, err := spotify.GenerateVerifier()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.verifiers.Put(state, verifier)
	http.Redirect(w, r, h.client.Auth().AuthorizeURL(state, spotify.Challenge(verifier)), http.StatusFound)
}

// Callback exchanges the returned code for tokens, resolves the user's
// profile, and stores the credentials keyed by user id. Any failure returns
// the user to the unauthenticated state.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "missing code or state", http.StatusBadRequest)
		return
	}
	verifier, ok := h.verifiers.Take(state)
	if !ok {
		http.Error(w, "unknown state", http.StatusBadRequest)
		return
	}

	token, err := h.client.Auth().Exchange(r.Context(), code, verifier)
	if err != nil {
		h.logger.Error().Err(err).Msg("token exchange rejected")
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}
	user, err := h.client.Library().CurrentUser(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error().Err(err).Msg("profile fetch failed")
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	h.tokens.Put(user.ID, domain.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	})
	h.logger.Info().Str("user_id", user.ID).Msg("user authenticated")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}

// Logout drops the user's credentials and tears down any live session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	h.game.End(userID)
	h.tokens.Delete(userID)
	w.WriteHeader(http.StatusNoContent)
}
