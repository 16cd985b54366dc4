package calculation

import (
	"github.com/learnpath-hub/reward-service/internal/domain/reward"
	"github.com/learnpath-hub/reward-service/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STRENGTH CALCULATOR
// Strength is a reserved score without a formula yet. Both operations are
// deliberate pass-throughs so the contract stays type-checked alongside the
// other calculators. Keep them as no-ops until the scoring concept defines
// strength; do not substitute a default formula.
// ══════════════════════════════════════════════════════════════════════════════

// StrengthCalculator is the placeholder for the future strength score.
type StrengthCalculator struct{}

// NewStrengthCalculator creates the no-op strength calculator.
func NewStrengthCalculator() *StrengthCalculator {
	return &StrengthCalculator{}
}

// Kind implements ScoreCalculator.
func (c *StrengthCalculator) Kind() reward.ScoreKind {
	return reward.ScoreStrength
}

// RecalculateScore returns the strength score unchanged.
func (c *StrengthCalculator) RecalculateScore(set *reward.RewardScoreSet, _ []reward.ContentSnapshot) (*reward.RewardScore, error) {
	return set.Strength, nil
}

// CalculateOnContentWorkedOn returns the strength score unchanged.
func (c *StrengthCalculator) CalculateOnContentWorkedOn(set *reward.RewardScoreSet, _ []reward.ContentSnapshot, _ shared.ContentWorkedOnEvent) (*reward.RewardScore, error) {
	return set.Strength, nil
}
