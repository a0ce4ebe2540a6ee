package spotify

import (
	"context"

	"blindtest-service/internal/domain"
)

// TokenSource yields stored credentials for a user.
type TokenSource interface {
	Credentials(userID string) (domain.Credentials, bool)
}

// LibraryFetcher adapts the saved-tracks endpoint to the library cache's
// fetcher contract, looking up the user's token per fetch.
type LibraryFetcher struct {
	library *LibraryService
	tokens  TokenSource
}

func NewLibraryFetcher(client *Client, tokens TokenSource) *LibraryFetcher {
	return &LibraryFetcher{library: client.Library(), tokens: tokens}
}

func (f *LibraryFetcher) FetchLibrary(ctx context.Context, userID string) ([]domain.Track, int, error) {
	creds, ok := f.tokens.Credentials(userID)
	if !ok {
		return nil, 0, domain.ErrNotAuthenticated
	}
	return f.library.SavedTracks(ctx, creds.AccessToken)
}
