// Package spotify is a minimal client for the pieces of the Spotify Web API
// the blindtest needs: the PKCE authorization-code flow, the paginated
// saved-tracks endpoint, the profile endpoint, and playback control.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultAPIBaseURL is the Web API endpoint.
	DefaultAPIBaseURL = "https://api.spotify.com/v1"
	// DefaultAccountsBaseURL hosts the authorize and token endpoints.
	DefaultAccountsBaseURL = "https://accounts.spotify.com"
)

// Config holds client configuration. ClientID and RedirectURI are required;
// the base URLs default to the public endpoints and exist for testing.
type Config struct {
	ClientID        string
	RedirectURI     string
	Scopes          string
	HTTPClient      *http.Client
	APIBaseURL      string
	AccountsBaseURL string
	Logger          zerolog.Logger
}

// Client is the entry point for Spotify API operations.
type Client struct {
	clientID    string
	redirectURI string
	scopes      string
	httpClient  *http.Client
	apiBase     string
	accountsURL string
	logger      zerolog.Logger

	auth    *AuthService
	library *LibraryService
	player  *PlayerService
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("spotify: ClientID is required")
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("spotify: RedirectURI is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = DefaultAPIBaseURL
	}
	accountsURL := cfg.AccountsBaseURL
	if accountsURL == "" {
		accountsURL = DefaultAccountsBaseURL
	}

	c := &Client{
		clientID:    cfg.ClientID,
		redirectURI: cfg.RedirectURI,
		scopes:      cfg.Scopes,
		httpClient:  httpClient,
		apiBase:     apiBase,
		accountsURL: accountsURL,
		logger:      cfg.Logger.With().Str("component", "spotify").Logger(),
	}
	c.auth = &AuthService{client: c}
	c.library = &LibraryService{client: c}
	c.player = &PlayerService{client: c}
	return c, nil
}

// Auth returns the authorization service.
func (c *Client) Auth() *AuthService { return c.auth }

// Library returns the saved-tracks and profile service.
func (c *Client) Library() *LibraryService { return c.library }

// Player returns the playback control service.
func (c *Client) Player() *PlayerService { return c.player }

// do issues one bearer-authenticated API request and decodes the JSON
// response into out (when out is non-nil). Failures are not retried; a
// non-success status surfaces as *APIError.
func (c *Client) do(ctx context.Context, method, url, token string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", url).Msg("api request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return decodeJSON(resp, out)
}

func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
