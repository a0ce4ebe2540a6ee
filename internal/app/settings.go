package app

import (
	"sort"
	"sync"

	"blindtest-service/internal/domain"
)

const (
	minQuestionsPerQuiz = 1
	maxQuestionsPerQuiz = 50
	minAnswerOptions    = 2
	maxAnswerOptions    = 10
)

// SettingsPatch carries a partial settings update; nil fields are left as-is.
type SettingsPatch struct {
	QuestionsPerQuiz   *int               `json:"questionsPerQuiz,omitempty"`
	NumAnswerOptions   *int               `json:"numAnswerOptions,omitempty"`
	MinSongsToPlay     *int               `json:"minSongsToPlay,omitempty"`
	PointsBase         *int               `json:"pointsBase,omitempty"`
	PointsPerSecond    *int               `json:"pointsPerSecond,omitempty"`
	TimeBonusPoints    *int               `json:"timeBonusPoints,omitempty"`
	TimeBonusThreshold *int               `json:"timeBonusThreshold,omitempty"`
	ComboTiers         []domain.ComboTier `json:"comboTiers,omitempty"`
}

// SettingsStore holds the mutable quiz parameters. All mutation goes through
// Update; other components read copies via Current. Sessions capture the
// settings once at start, so an update applies from the next quiz on.
type SettingsStore struct {
	mu      sync.RWMutex
	current domain.Settings
}

func NewSettingsStore(initial domain.Settings) *SettingsStore {
	return &SettingsStore{current: normalize(initial)}
}

// Current returns a copy of the settings, including the tier slice.
func (s *SettingsStore) Current() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySettings(s.current)
}

// Update merges the patch into the current settings, clamping out-of-range
// values instead of rejecting them, and returns the result.
func (s *SettingsStore) Update(patch SettingsPatch) domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := copySettings(s.current)
	if patch.QuestionsPerQuiz != nil {
		next.QuestionsPerQuiz = *patch.QuestionsPerQuiz
	}
	if patch.NumAnswerOptions != nil {
		next.NumAnswerOptions = *patch.NumAnswerOptions
	}
	if patch.MinSongsToPlay != nil {
		next.MinSongsToPlay = *patch.MinSongsToPlay
	}
	if patch.PointsBase != nil {
		next.PointsBase = *patch.PointsBase
	}
	if patch.PointsPerSecond != nil {
		next.PointsPerSecond = *patch.PointsPerSecond
	}
	if patch.TimeBonusPoints != nil {
		next.TimeBonusPoints = *patch.TimeBonusPoints
	}
	if patch.TimeBonusThreshold != nil {
		next.TimeBonusThreshold = *patch.TimeBonusThreshold
	}
	if patch.ComboTiers != nil {
		next.ComboTiers = append([]domain.ComboTier(nil), patch.ComboTiers...)
	}

	s.current = normalize(next)
	return copySettings(s.current)
}

func normalize(s domain.Settings) domain.Settings {
	s.QuestionsPerQuiz = clamp(s.QuestionsPerQuiz, minQuestionsPerQuiz, maxQuestionsPerQuiz)
	s.NumAnswerOptions = clamp(s.NumAnswerOptions, minAnswerOptions, maxAnswerOptions)
	if s.MinSongsToPlay < s.NumAnswerOptions {
		// A question needs numAnswerOptions distinct tracks.
		s.MinSongsToPlay = s.NumAnswerOptions
	}
	if s.PointsBase < 0 {
		s.PointsBase = 0
	}
	if s.PointsPerSecond < 0 {
		s.PointsPerSecond = 0
	}
	if s.TimeBonusPoints < 0 {
		s.TimeBonusPoints = 0
	}
	if s.TimeBonusThreshold < 0 {
		s.TimeBonusThreshold = 0
	}
	tiers := make([]domain.ComboTier, 0, len(s.ComboTiers))
	for _, tier := range s.ComboTiers {
		if tier.Threshold > 0 && tier.Multiplier > 0 {
			tiers = append(tiers, tier)
		}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Threshold > tiers[j].Threshold })
	s.ComboTiers = tiers
	return s
}

func copySettings(s domain.Settings) domain.Settings {
	out := s
	out.ComboTiers = append([]domain.ComboTier(nil), s.ComboTiers...)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
