package calculation

import (
	"github.com/google/uuid"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
	"github.com/learnpath-hub/reward-service/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GROWTH CALCULATOR
// Growth tracks absolute mastery points: the sum of reward points of all
// learned contents. It has no upper bound and only moves on completion
// events, never on the nightly sweep.
// ══════════════════════════════════════════════════════════════════════════════

// GrowthCalculator computes the growth score.
type GrowthCalculator struct {
	now Clock
}

// NewGrowthCalculator creates a growth calculator.
func NewGrowthCalculator() *GrowthCalculator {
	return &GrowthCalculator{now: systemClock}
}

// NewGrowthCalculatorWithClock creates a growth calculator with a fixed
// clock, for tests.
func NewGrowthCalculatorWithClock(clock Clock) *GrowthCalculator {
	return &GrowthCalculator{now: clock}
}

// Kind implements ScoreCalculator.
func (c *GrowthCalculator) Kind() reward.ScoreKind {
	return reward.ScoreGrowth
}

// RecalculateScore is a no-op: growth only changes when contents are
// completed, so the nightly sweep leaves it untouched.
func (c *GrowthCalculator) RecalculateScore(set *reward.RewardScoreSet, _ []reward.ContentSnapshot) (*reward.RewardScore, error) {
	return set.Growth, nil
}

// CalculateOnContentWorkedOn sets growth to the sum of reward points of all
// learned contents, and the percentage to the learned share of the total.
func (c *GrowthCalculator) CalculateOnContentWorkedOn(set *reward.RewardScoreSet, contents []reward.ContentSnapshot, event shared.ContentWorkedOnEvent) (*reward.RewardScore, error) {
	growth := set.Growth
	oldValue := growth.Value

	current := 0
	total := 0
	for _, content := range contents {
		total += content.RewardPoints
		if content.IsLearned {
			current += content.RewardPoints
		}
	}

	if current == oldValue {
		// no change, no log entry
		return growth, nil
	}

	growth.ApplyChange(c.now(), current, reward.ReasonContentDone, []uuid.UUID{event.ContentID})
	if total == 0 {
		growth.Percentage = 0
	} else {
		growth.Percentage = float64(current) / float64(total)
	}

	return growth, nil
}
