package spotify

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AuthService implements the authorization-code flow with PKCE.
type AuthService struct {
	client *Client
}

// Token is the result of a successful code exchange or refresh.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateVerifier returns a 64-character PKCE code verifier.
func GenerateVerifier() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verifier: %w", err)
	}
	var b strings.Builder
	for _, x := range buf {
		b.WriteByte(verifierCharset[int(x)%len(verifierCharset)])
	}
	return b.String(), nil
}

// Challenge derives the S256 code challenge for a verifier.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// AuthorizeURL builds the redirect target for the user's browser.
func (a *AuthService) AuthorizeURL(state, challenge string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", a.client.clientID)
	q.Set("scope", a.client.scopes)
	q.Set("redirect_uri", a.client.redirectURI)
	q.Set("state", state)
	q.Set("code_challenge_method", "S256")
	q.Set("code_challenge", challenge)
	return a.client.accountsURL + "/authorize?" + q.Encode()
}

// Exchange trades an authorization code plus the stored verifier for tokens.
func (a *AuthService) Exchange(ctx context.Context, code, verifier string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.client.redirectURI)
	form.Set("client_id", a.client.clientID)
	form.Set("code_verifier", verifier)
	return a.tokenRequest(ctx, form)
}

// Refresh obtains a new access token from a refresh token.
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", a.client.clientID)
	return a.tokenRequest(ctx, form)
}

func (a *AuthService) tokenRequest(ctx context.Context, form url.Values) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.client.accountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Token{}, parseAPIError(resp)
	}
	var token Token
	if err := decodeJSON(resp, &token); err != nil {
		return Token{}, err
	}
	if token.AccessToken == "" {
		return Token{}, fmt.Errorf("token response missing access_token")
	}
	return token, nil
}
