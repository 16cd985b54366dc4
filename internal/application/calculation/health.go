package calculation

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
	"github.com/learnpath-hub/reward-service/internal/domain/shared"
	"github.com/learnpath-hub/reward-service/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CALCULATOR
// Health reflects how well the user keeps up with new material. It decays
// while never-learned contents sit past their suggested due date and
// regenerates when the user works on them.
// ══════════════════════════════════════════════════════════════════════════════

// Health bounds.
const (
	healthMax = 100
	healthMin = 0
)

// HealthConfig contains the tunables of the health calculator.
type HealthConfig struct {
	// ModifierPerDay is the multiplier applied to the summed overdue days.
	ModifierPerDay float64

	// DecreaseCap is the maximum health decrease per recalculation.
	DecreaseCap float64
}

// DefaultHealthConfig returns the reference defaults.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		ModifierPerDay: 0.5,
		DecreaseCap:    20,
	}
}

// HealthCalculator computes the health score.
type HealthCalculator struct {
	config HealthConfig
	now    Clock
}

// NewHealthCalculator creates a health calculator.
func NewHealthCalculator(config HealthConfig) *HealthCalculator {
	return &HealthCalculator{config: config, now: systemClock}
}

// NewHealthCalculatorWithClock creates a health calculator with a fixed clock,
// for tests.
func NewHealthCalculatorWithClock(config HealthConfig, clock Clock) *HealthCalculator {
	return &HealthCalculator{config: config, now: clock}
}

// Kind implements ScoreCalculator.
func (c *HealthCalculator) Kind() reward.ScoreKind {
	return reward.ScoreHealth
}

// RecalculateScore decreases health for newly overdue contents.
func (c *HealthCalculator) RecalculateScore(set *reward.RewardScoreSet, contents []reward.ContentSnapshot) (*reward.RewardScore, error) {
	health := set.Health
	oldValue := health.Value

	now := c.now()
	newlyOverdue := c.newlyOverdueContents(contents, now)

	decrease := c.healthDecrease(newlyOverdue, now)
	newValue := oldValue - decrease
	if newValue < healthMin {
		newValue = healthMin
	}

	if newValue == oldValue {
		// no change, no log entry
		return health, nil
	}

	health.ApplyChange(now, newValue, reward.ReasonContentDueForLearning, reward.ContentIDs(newlyOverdue))
	return health, nil
}

// CalculateOnContentWorkedOn regenerates health when the user works on one
// of the overdue contents. The regeneration is proportional to the distance
// to full health, spread over the remaining overdue contents.
func (c *HealthCalculator) CalculateOnContentWorkedOn(set *reward.RewardScoreSet, contents []reward.ContentSnapshot, event shared.ContentWorkedOnEvent) (*reward.RewardScore, error) {
	health := set.Health
	oldValue := health.Value

	diffToFull := healthMax - oldValue
	if diffToFull == 0 {
		return health, nil
	}

	now := c.now()
	newlyOverdue := c.newlyOverdueContents(contents, now)

	overdueCount := len(newlyOverdue)
	if !containsContent(newlyOverdue, event.ContentID) {
		// the snapshot may already reflect the just-worked content,
		// in which case the event's content is no longer overdue
		overdueCount++
	}

	increase := int(math.Round(float64(diffToFull) / float64(overdueCount)))
	newValue := oldValue + increase
	if newValue > healthMax {
		newValue = healthMax
	}

	if newValue == oldValue {
		return health, nil
	}

	health.ApplyChange(now, newValue, reward.ReasonContentDone, []uuid.UUID{event.ContentID})
	return health, nil
}

// InitialHealthFor computes the health value a brand-new score set should
// start with, given the current course contents. A course with overdue
// material starts below full health.
func (c *HealthCalculator) InitialHealthFor(contents []reward.ContentSnapshot) int {
	now := c.now()
	newlyOverdue := c.newlyOverdueContents(contents, now)
	initial := healthMax - c.healthDecrease(newlyOverdue, now)

	if initial < healthMin {
		return healthMin
	}
	if initial > healthMax {
		return healthMax
	}
	return initial
}

// newlyOverdueContents returns contents that were never learned and whose
// suggested due date lies in the past.
func (c *HealthCalculator) newlyOverdueContents(contents []reward.ContentSnapshot, now time.Time) []reward.ContentSnapshot {
	overdue := make([]reward.ContentSnapshot, 0, len(contents))
	for _, content := range contents {
		if !content.IsLearned && content.IsOverdueAt(now) {
			overdue = append(overdue, content)
		}
	}
	return overdue
}

// healthDecrease sums the overdue days of the given contents, counting the
// due date itself as one day, applies the per-day modifier and caps the
// result.
func (c *HealthCalculator) healthDecrease(newlyOverdue []reward.ContentSnapshot, now time.Time) int {
	baseDecrease := 0
	for _, content := range newlyOverdue {
		baseDecrease += timeutil.DaysOverdueInclusive(now, *content.SuggestedDueDate)
	}

	decrease := math.Floor(c.config.ModifierPerDay * float64(baseDecrease))
	return int(math.Min(c.config.DecreaseCap, decrease))
}
