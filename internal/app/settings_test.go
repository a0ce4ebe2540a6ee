package app

import (
	"testing"

	"blindtest-service/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestSettingsStoreReturnsCopy(t *testing.T) {
	store := NewSettingsStore(domain.DefaultSettings())

	a := store.Current()
	a.QuestionsPerQuiz = 99
	if b := store.Current(); b.QuestionsPerQuiz == 99 {
		t.Fatalf("mutating a returned copy leaked into the store")
	}
}

func TestSettingsStorePartialUpdate(t *testing.T) {
	store := NewSettingsStore(domain.DefaultSettings())

	got := store.Update(SettingsPatch{QuestionsPerQuiz: intPtr(5)})
	if got.QuestionsPerQuiz != 5 {
		t.Fatalf("expected 5 questions, got %d", got.QuestionsPerQuiz)
	}
	def := domain.DefaultSettings()
	if got.NumAnswerOptions != def.NumAnswerOptions {
		t.Fatalf("untouched field changed: %d", got.NumAnswerOptions)
	}
	if got.PointsBase != def.PointsBase {
		t.Fatalf("untouched field changed: %d", got.PointsBase)
	}
}

func TestSettingsStoreClamps(t *testing.T) {
	store := NewSettingsStore(domain.DefaultSettings())

	got := store.Update(SettingsPatch{
		QuestionsPerQuiz: intPtr(500),
		NumAnswerOptions: intPtr(0),
		PointsBase:       intPtr(-10),
	})
	if got.QuestionsPerQuiz != 50 {
		t.Fatalf("questions not clamped: %d", got.QuestionsPerQuiz)
	}
	if got.NumAnswerOptions != 2 {
		t.Fatalf("options not clamped: %d", got.NumAnswerOptions)
	}
	if got.PointsBase != 0 {
		t.Fatalf("negative points not clamped: %d", got.PointsBase)
	}

	got = store.Update(SettingsPatch{QuestionsPerQuiz: intPtr(0)})
	if got.QuestionsPerQuiz != 1 {
		t.Fatalf("questions lower bound not enforced: %d", got.QuestionsPerQuiz)
	}
}

func TestSettingsStoreMinSongsFollowsOptions(t *testing.T) {
	store := NewSettingsStore(domain.DefaultSettings())

	got := store.Update(SettingsPatch{
		NumAnswerOptions: intPtr(8),
		MinSongsToPlay:   intPtr(3),
	})
	if got.MinSongsToPlay != 8 {
		t.Fatalf("min songs must cover the option count, got %d", got.MinSongsToPlay)
	}
}

func TestSettingsStoreTierNormalization(t *testing.T) {
	store := NewSettingsStore(domain.DefaultSettings())

	got := store.Update(SettingsPatch{ComboTiers: []domain.ComboTier{
		{Threshold: 2, Multiplier: 1.2},
		{Threshold: 0, Multiplier: 9.0},
		{Threshold: 6, Multiplier: 2.0},
		{Threshold: 4, Multiplier: -1.0},
	}})
	if len(got.ComboTiers) != 2 {
		t.Fatalf("expected 2 valid tiers, got %d", len(got.ComboTiers))
	}
	if got.ComboTiers[0].Threshold != 6 || got.ComboTiers[1].Threshold != 2 {
		t.Fatalf("tiers not sorted by threshold: %+v", got.ComboTiers)
	}
}
