package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"blindtest-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// LibraryService covers the profile and saved-tracks endpoints.
type LibraryService struct {
	client *Client
}

const (
	savedTracksPageLimit = 50
	savedTracksFields    = "total,items(track(id,name,uri,duration_ms,is_playable,is_local,artists(name),album(images(url))))"
)

type savedTracksPage struct {
	Total int `json:"total"`
	Items []struct {
		Track *apiTrack `json:"track"`
	} `json:"items"`
}

type apiTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URI        string `json:"uri"`
	DurationMS int    `json:"duration_ms"`
	IsPlayable *bool  `json:"is_playable"`
	IsLocal    bool   `json:"is_local"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
}

type apiUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// CurrentUser fetches the authenticated user's profile.
func (l *LibraryService) CurrentUser(ctx context.Context, token string) (domain.User, error) {
	var user apiUser
	if err := l.client.do(ctx, http.MethodGet, l.client.apiBase+"/me", token, nil, &user); err != nil {
		return domain.User{}, err
	}
	if user.ID == "" {
		return domain.User{}, fmt.Errorf("profile response missing id")
	}
	return domain.User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// SavedTracks fetches the user's complete saved-track list. The first page
// reveals the total, after which the remaining pages are fetched
// concurrently; the whole load fails if any page does. Pages are merged in
// offset order.
func (l *LibraryService) SavedTracks(ctx context.Context, token string) ([]domain.Track, int, error) {
	first, err := l.fetchPage(ctx, token, 0)
	if err != nil {
		return nil, 0, err
	}

	pageCount := (first.Total + savedTracksPageLimit - 1) / savedTracksPageLimit
	pages := make([]*savedTracksPage, pageCount)
	if pageCount > 0 {
		pages[0] = first
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 1; i < pageCount; i++ {
		i := i
		g.Go(func() error {
			page, err := l.fetchPage(gctx, token, i*savedTracksPageLimit)
			if err != nil {
				return err
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	tracks := make([]domain.Track, 0, first.Total)
	for _, page := range pages {
		if page == nil {
			continue
		}
		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}
			if track, ok := item.Track.toDomain(); ok {
				tracks = append(tracks, track)
			}
		}
	}
	return tracks, first.Total, nil
}

func (l *LibraryService) fetchPage(ctx context.Context, token string, offset int) (*savedTracksPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(savedTracksPageLimit))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("fields", savedTracksFields)

	var page savedTracksPage
	if err := l.client.do(ctx, http.MethodGet, l.client.apiBase+"/me/tracks?"+q.Encode(), token, nil, &page); err != nil {
		return nil, fmt.Errorf("saved tracks page at %d: %w", offset, err)
	}
	return &page, nil
}

func (t *apiTrack) toDomain() (domain.Track, bool) {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	imageURL := ""
	if len(t.Album.Images) > 0 {
		imageURL = t.Album.Images[0].URL
	}
	// The API omits is_playable unless a market is set; treat absent as
	// playable, local files as not.
	playable := !t.IsLocal
	if t.IsPlayable != nil {
		playable = *t.IsPlayable && !t.IsLocal
	}
	track, err := domain.NewTrack(t.ID, t.Name, t.URI, artists, t.DurationMS, imageURL, playable)
	if err != nil {
		return domain.Track{}, false
	}
	return track, true
}
