package domain

import (
	"strings"
	"time"
)

// Track is a single playable entry from the user's saved library.
// Instances are built through NewTrack and never mutated afterwards.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	URI        string   `json:"uri"`
	DurationMS int      `json:"durationMs"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	Playable   bool     `json:"playable"`
}

// NewTrack validates the required fields before constructing a Track.
func NewTrack(id, name, uri string, artists []string, durationMS int, imageURL string, playable bool) (Track, error) {
	if id == "" || uri == "" || durationMS <= 0 {
		return Track{}, ErrInvalidTrack
	}
	return Track{
		ID:         id,
		Name:       name,
		Artists:    artists,
		URI:        uri,
		DurationMS: durationMS,
		ImageURL:   imageURL,
		Playable:   playable,
	}, nil
}

// Qualifies reports whether the track may enter a library snapshot.
func (t Track) Qualifies(minDurationMS int) bool {
	return t.Playable && t.DurationMS >= minDurationMS
}

// Label renders the track the way answer buttons display it.
func (t Track) Label() string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	return t.Name + " by " + strings.Join(t.Artists, ", ")
}

// LibrarySnapshot is an immutable, timestamped copy of a user's qualifying
// tracks. A newer snapshot supersedes an older one; snapshots are never
// mutated in place.
type LibrarySnapshot struct {
	UserID    string    `json:"userId"`
	Tracks    []Track   `json:"tracks"`
	Total     int       `json:"total"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Fresh reports whether the snapshot is still usable under the given TTL.
func (s LibrarySnapshot) Fresh(now time.Time, ttl time.Duration) bool {
	if s.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(s.FetchedAt) < ttl
}

// ComboTier maps a minimum streak to a score multiplier.
type ComboTier struct {
	Threshold  int     `json:"threshold" yaml:"threshold"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
}

// Settings holds the tunable quiz parameters. ComboTiers are kept sorted
// descending by threshold.
type Settings struct {
	QuestionsPerQuiz   int         `json:"questionsPerQuiz"`
	NumAnswerOptions   int         `json:"numAnswerOptions"`
	MinSongsToPlay     int         `json:"minSongsToPlay"`
	PointsBase         int         `json:"pointsBase"`
	PointsPerSecond    int         `json:"pointsPerSecond"`
	TimeBonusPoints    int         `json:"timeBonusPoints"`
	TimeBonusThreshold int         `json:"timeBonusThreshold"`
	ComboTiers         []ComboTier `json:"comboTiers"`
}

// DefaultSettings returns the stock quiz parameters.
func DefaultSettings() Settings {
	return Settings{
		QuestionsPerQuiz:   10,
		NumAnswerOptions:   4,
		MinSongsToPlay:     10,
		PointsBase:         50,
		PointsPerSecond:    7,
		TimeBonusPoints:    50,
		TimeBonusThreshold: 13,
		ComboTiers: []ComboTier{
			{Threshold: 6, Multiplier: 2.0},
			{Threshold: 4, Multiplier: 1.5},
			{Threshold: 2, Multiplier: 1.2},
		},
	}
}

// Credentials are the per-user tokens obtained from the auth flow.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// AnswerOption is the client-facing view of one answer button. It carries no
// correctness marker; that only becomes visible through the AnswerResult.
type AnswerOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Question is the client-facing view of the current question.
type Question struct {
	Index         int            `json:"index"`
	Total         int            `json:"total"`
	TimeRemaining int            `json:"timeRemaining"`
	Options       []AnswerOption `json:"options"`
}

// OptionVerdict classifies an answer button after the question is resolved.
type OptionVerdict string

const (
	VerdictNeutral   OptionVerdict = "neutral"
	VerdictCorrect   OptionVerdict = "correct"
	VerdictIncorrect OptionVerdict = "incorrect"
)

// AnswerResult summarizes the outcome of one answered question.
type AnswerResult struct {
	QuestionIndex int                      `json:"questionIndex"`
	Correct       bool                     `json:"correct"`
	CorrectID     string                   `json:"correctId"`
	SelectedID    string                   `json:"selectedId,omitempty"`
	Awarded       int                      `json:"awarded"`
	Multiplier    float64                  `json:"multiplier"`
	TotalScore    int                      `json:"totalScore"`
	Streak        int                      `json:"streak"`
	ComboBroken   bool                     `json:"comboBroken"`
	Verdicts      map[string]OptionVerdict `json:"verdicts"`
}

// Summary is broadcast when a quiz run finishes.
type Summary struct {
	UserID       string `json:"userId"`
	Score        int    `json:"score"`
	Questions    int    `json:"questions"`
	HighScore    int    `json:"highScore"`
	NewHighScore bool   `json:"newHighScore"`
}

// User is the authenticated player's profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}
