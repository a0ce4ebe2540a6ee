package app

import (
	"context"
	"time"

	"blindtest-service/internal/domain"
	"github.com/rs/zerolog"
)

// LibraryRepository abstracts the cached saved-track library (in-memory,
// Redis, etc).
type LibraryRepository interface {
	// Load returns a fresh-enough snapshot for the user, fetching from the
	// external API when the cache is empty, stale, or forceRefresh is set.
	Load(ctx context.Context, userID string, forceRefresh bool) (domain.LibrarySnapshot, error)
}

// HighScoreRepository persists each user's best score.
type HighScoreRepository interface {
	Best(ctx context.Context, userID string) (int, error)
	// Record stores score if it beats the current best and returns the best
	// score afterwards plus whether it changed. Monotonic and idempotent.
	Record(ctx context.Context, userID string, score int) (int, bool, error)
}

// SessionStore tracks the live session per user.
type SessionStore interface {
	// Swap installs a session and returns the one it replaced, if any.
	Swap(userID string, session *Session) *Session
	Get(userID string) (*Session, bool)
	Remove(userID string) *Session
}

// GameConfig carries the fixed timing parameters of a quiz.
type GameConfig struct {
	QuizSeconds   int
	FeedbackDelay time.Duration
	TickInterval  time.Duration // defaults to one second
	PlayerVolume  float64
}

// GameService wires the library cache, high score store, settings, and live
// sessions into the quiz use cases. All collaborators are injected; the
// service holds no ambient state.
type GameService struct {
	library  LibraryRepository
	scores   HighScoreRepository
	settings *SettingsStore
	sessions SessionStore
	cfg      GameConfig
	logger   zerolog.Logger
}

func NewGameService(library LibraryRepository, scores HighScoreRepository, settings *SettingsStore, sessions SessionStore, cfg GameConfig, logger zerolog.Logger) *GameService {
	return &GameService{
		library:  library,
		scores:   scores,
		settings: settings,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.With().Str("component", "game").Logger(),
	}
}

// Start loads the user's library and begins a new quiz session, replacing
// and tearing down any session the user already had running.
func (g *GameService) Start(ctx context.Context, userID string, player Player, forceRefresh bool) (*Session, error) {
	snapshot, err := g.library.Load(ctx, userID, forceRefresh)
	if err != nil {
		return nil, err
	}
	settings := g.settings.Current()
	if len(snapshot.Tracks) < settings.MinSongsToPlay {
		return nil, domain.ErrInsufficientLibrary
	}

	session := newSession(userID, snapshot.Tracks, settings, g.cfg, player, g.scores, g.logger)
	if old := g.sessions.Swap(userID, session); old != nil {
		old.Close()
	}
	if err := session.Start(); err != nil {
		g.sessions.Remove(userID)
		session.Close()
		return nil, err
	}
	g.logger.Info().Str("user_id", userID).Int("tracks", len(snapshot.Tracks)).Msg("quiz started")
	return session, nil
}

// Answer forwards an answer to the user's live session.
func (g *GameService) Answer(userID, optionID string) (domain.AnswerResult, error) {
	session, ok := g.sessions.Get(userID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrSessionNotFound
	}
	return session.Answer(optionID)
}

// Subscribe attaches to the user's live session event stream.
func (g *GameService) Subscribe(userID string) (<-chan Event, func(), error) {
	session, ok := g.sessions.Get(userID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// HighScore reads the user's stored best, defaulting to zero.
func (g *GameService) HighScore(ctx context.Context, userID string) (int, error) {
	return g.scores.Best(ctx, userID)
}

// UpdateSettings applies a clamped partial update; takes effect on the next
// session start.
func (g *GameService) UpdateSettings(patch SettingsPatch) domain.Settings {
	return g.settings.Update(patch)
}

// Settings returns the current tunables.
func (g *GameService) Settings() domain.Settings {
	return g.settings.Current()
}

// End tears down the user's session, cancelling all of its timers so stale
// callbacks cannot touch a superseded quiz. Used on logout and disconnect.
func (g *GameService) End(userID string) {
	if session := g.sessions.Remove(userID); session != nil {
		session.Close()
		g.logger.Info().Str("user_id", userID).Msg("session ended")
	}
}
