package app

import (
	"testing"

	"blindtest-service/internal/domain"
)

func testSettings() domain.Settings {
	return domain.Settings{
		QuestionsPerQuiz:   10,
		NumAnswerOptions:   4,
		MinSongsToPlay:     10,
		PointsBase:         50,
		PointsPerSecond:    7,
		TimeBonusPoints:    50,
		TimeBonusThreshold: 13,
		ComboTiers: []domain.ComboTier{
			{Threshold: 6, Multiplier: 2.0},
			{Threshold: 4, Multiplier: 1.5},
			{Threshold: 2, Multiplier: 1.2},
		},
	}
}

func TestComboMultiplierTiers(t *testing.T) {
	tiers := testSettings().ComboTiers

	cases := []struct {
		streak int
		want   float64
	}{
		{0, 1.0},
		{1, 1.0},
		{2, 1.2},
		{3, 1.2},
		{4, 1.5},
		{5, 1.5},
		{6, 2.0},
		{100, 2.0},
	}
	for _, tc := range cases {
		if got := ComboMultiplier(tiers, tc.streak); got != tc.want {
			t.Fatalf("ComboMultiplier(%d) = %v, want %v", tc.streak, got, tc.want)
		}
	}
}

func TestComboMultiplierNonDecreasing(t *testing.T) {
	tiers := testSettings().ComboTiers
	prev := ComboMultiplier(tiers, 0)
	for streak := 1; streak <= 20; streak++ {
		cur := ComboMultiplier(tiers, streak)
		if cur < prev {
			t.Fatalf("multiplier decreased at streak %d: %v -> %v", streak, prev, cur)
		}
		prev = cur
	}
}

func TestComboMultiplierNoTiers(t *testing.T) {
	if got := ComboMultiplier(nil, 50); got != 1.0 {
		t.Fatalf("expected 1.0 without tiers, got %v", got)
	}
}

func TestComputePointsKnownValues(t *testing.T) {
	settings := testSettings()

	// 50 + 15*7 = 155, +50 time bonus (15 >= 13) = 205, x1.0.
	if got := ComputePoints(15, 0, settings); got != 205 {
		t.Fatalf("expected 205 points, got %d", got)
	}
	// Same answer on a 6 streak doubles: 205 x 2.0 = 410.
	if got := ComputePoints(15, 6, settings); got != 410 {
		t.Fatalf("expected 410 points, got %d", got)
	}
	// Below the bonus threshold: 50 + 12*7 = 134.
	if got := ComputePoints(12, 0, settings); got != 134 {
		t.Fatalf("expected 134 points, got %d", got)
	}
	// Multiplier rounds to nearest: (50 + 5*7) x 1.2 = 102.
	if got := ComputePoints(5, 2, settings); got != 102 {
		t.Fatalf("expected 102 points, got %d", got)
	}
}

func TestComputePointsMonotonic(t *testing.T) {
	settings := testSettings()

	for streak := 0; streak <= 8; streak++ {
		prev := ComputePoints(0, streak, settings)
		for remaining := 1; remaining <= 15; remaining++ {
			cur := ComputePoints(remaining, streak, settings)
			if cur < prev {
				t.Fatalf("points decreased with more time: streak=%d remaining=%d %d -> %d", streak, remaining, prev, cur)
			}
			prev = cur
		}
	}
	for remaining := 0; remaining <= 15; remaining++ {
		prev := ComputePoints(remaining, 0, settings)
		for streak := 1; streak <= 8; streak++ {
			cur := ComputePoints(remaining, streak, settings)
			if cur < prev {
				t.Fatalf("points decreased with longer streak: remaining=%d streak=%d %d -> %d", remaining, streak, prev, cur)
			}
			prev = cur
		}
	}
}

func TestClassify(t *testing.T) {
	if got := Classify("a", "b", "a"); got != domain.VerdictCorrect {
		t.Fatalf("correct option misclassified: %v", got)
	}
	if got := Classify("a", "b", "b"); got != domain.VerdictIncorrect {
		t.Fatalf("wrong pick misclassified: %v", got)
	}
	if got := Classify("a", "b", "c"); got != domain.VerdictNeutral {
		t.Fatalf("bystander option misclassified: %v", got)
	}
	// Timeout: no selection, only the correct option stands out.
	if got := Classify("a", "", "a"); got != domain.VerdictCorrect {
		t.Fatalf("correct option misclassified on timeout: %v", got)
	}
	if got := Classify("a", "", "c"); got != domain.VerdictNeutral {
		t.Fatalf("bystander misclassified on timeout: %v", got)
	}
}
