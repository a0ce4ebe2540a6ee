package app

import (
	"math"

	"blindtest-service/internal/domain"
)

// ComboMultiplier returns the multiplier of the highest tier whose threshold
// the streak satisfies, or 1.0 when no tier matches. Tiers are expected
// sorted descending by threshold (SettingsStore keeps them that way), but
// the scan tolerates any order.
func ComboMultiplier(tiers []domain.ComboTier, streak int) float64 {
	best := 1.0
	bestThreshold := -1
	for _, tier := range tiers {
		if streak >= tier.Threshold && tier.Threshold > bestThreshold {
			best = tier.Multiplier
			bestThreshold = tier.Threshold
		}
	}
	return best
}

// ComputePoints converts remaining time and the current streak into points.
// Pure function: base + per-second value, a bonus for fast answers, then the
// combo multiplier, rounded to the nearest integer.
func ComputePoints(timeRemaining, streak int, settings domain.Settings) int {
	base := settings.PointsBase + timeRemaining*settings.PointsPerSecond
	if timeRemaining >= settings.TimeBonusThreshold {
		base += settings.TimeBonusPoints
	}
	return int(math.Round(float64(base) * ComboMultiplier(settings.ComboTiers, streak)))
}

// Classify labels one answer button after a question has been resolved.
// The correct option is always marked, the user's wrong pick (if any) is
// marked separately, everything else stays neutral.
func Classify(correctID, selectedID, optionID string) domain.OptionVerdict {
	switch optionID {
	case correctID:
		return domain.VerdictCorrect
	case selectedID:
		return domain.VerdictIncorrect
	default:
		return domain.VerdictNeutral
	}
}
