package config

import (
	"os"
	"time"

	"blindtest-service/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Spotify struct {
		ClientID    string `yaml:"client_id"`
		RedirectURI string `yaml:"redirect_uri"`
		Scopes      string `yaml:"scopes"`
	} `yaml:"spotify"`
	Quiz struct {
		DurationSeconds    int     `yaml:"duration_seconds"`
		FeedbackDelayMS    int     `yaml:"feedback_delay_ms"`
		CacheTTL           string  `yaml:"cache_ttl"`
		MinTrackDurationMS int     `yaml:"min_track_duration_ms"`
		PlayerVolume       float64 `yaml:"player_volume"`
	} `yaml:"quiz"`
	Settings struct {
		QuestionsPerQuiz   int                `yaml:"questions_per_quiz"`
		NumAnswerOptions   int                `yaml:"num_answer_options"`
		MinSongsToPlay     int                `yaml:"min_songs_to_play"`
		PointsBase         int                `yaml:"points_base"`
		PointsPerSecond    int                `yaml:"points_per_second"`
		TimeBonusPoints    int                `yaml:"time_bonus_points"`
		TimeBonusThreshold int                `yaml:"time_bonus_threshold"`
		ComboTiers         []domain.ComboTier `yaml:"combo_tiers"`
	} `yaml:"settings"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// GameSettings merges the configured defaults over the stock settings.
func (c Config) GameSettings() domain.Settings {
	s := domain.DefaultSettings()
	if c.Settings.QuestionsPerQuiz > 0 {
		s.QuestionsPerQuiz = c.Settings.QuestionsPerQuiz
	}
	if c.Settings.NumAnswerOptions > 0 {
		s.NumAnswerOptions = c.Settings.NumAnswerOptions
	}
	if c.Settings.MinSongsToPlay > 0 {
		s.MinSongsToPlay = c.Settings.MinSongsToPlay
	}
	if c.Settings.PointsBase > 0 {
		s.PointsBase = c.Settings.PointsBase
	}
	if c.Settings.PointsPerSecond > 0 {
		s.PointsPerSecond = c.Settings.PointsPerSecond
	}
	if c.Settings.TimeBonusPoints > 0 {
		s.TimeBonusPoints = c.Settings.TimeBonusPoints
	}
	if c.Settings.TimeBonusThreshold > 0 {
		s.TimeBonusThreshold = c.Settings.TimeBonusThreshold
	}
	if len(c.Settings.ComboTiers) > 0 {
		s.ComboTiers = append([]domain.ComboTier(nil), c.Settings.ComboTiers...)
	}
	return s
}

// QuizSeconds returns the per-question window, defaulting to 15 seconds.
func (c Config) QuizSeconds() int {
	if c.Quiz.DurationSeconds > 0 {
		return c.Quiz.DurationSeconds
	}
	return 15
}

// FeedbackDelay returns the post-answer delay, defaulting to two seconds.
func (c Config) FeedbackDelay() time.Duration {
	if c.Quiz.FeedbackDelayMS > 0 {
		return time.Duration(c.Quiz.FeedbackDelayMS) * time.Millisecond
	}
	return 2 * time.Second
}

// MinTrackDurationMS returns the admission floor, defaulting to 30 seconds.
func (c Config) MinTrackDurationMS() int {
	if c.Quiz.MinTrackDurationMS > 0 {
		return c.Quiz.MinTrackDurationMS
	}
	return 30000
}

// PlayerVolume defaults to half volume.
func (c Config) PlayerVolume() float64 {
	if c.Quiz.PlayerVolume > 0 {
		return c.Quiz.PlayerVolume
	}
	return 0.5
}

// Scopes defaults to what the quiz needs: profile, library, and streaming.
func (c Config) SpotifyScopes() string {
	if c.Spotify.Scopes != "" {
		return c.Spotify.Scopes
	}
	return "user-read-private user-read-email user-library-read streaming"
}
