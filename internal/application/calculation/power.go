package calculation

import (
	"math"

	"github.com/google/uuid"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
	"github.com/learnpath-hub/reward-service/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// POWER CALCULATOR
// Power is the composite score shown on the scoreboard. It is computed
// purely from the other four scores of the same set and is therefore not
// attributable to any content.
//
// The engine must run the other four calculators to completion before
// invoking power, otherwise power reads stale inputs.
// ══════════════════════════════════════════════════════════════════════════════

// PowerConfig contains the tunables of the power calculator.
type PowerConfig struct {
	// HealthFitnessMultiplier weighs how strongly health and fitness
	// amplify the absolute scores.
	HealthFitnessMultiplier float64
}

// DefaultPowerConfig returns the reference defaults.
func DefaultPowerConfig() PowerConfig {
	return PowerConfig{HealthFitnessMultiplier: 0.1}
}

// PowerCalculator computes the composite power score.
type PowerCalculator struct {
	config PowerConfig
	now    Clock
}

// NewPowerCalculator creates a power calculator.
func NewPowerCalculator(config PowerConfig) *PowerCalculator {
	return &PowerCalculator{config: config, now: systemClock}
}

// NewPowerCalculatorWithClock creates a power calculator with a fixed clock,
// for tests.
func NewPowerCalculatorWithClock(config PowerConfig, clock Clock) *PowerCalculator {
	return &PowerCalculator{config: config, now: clock}
}

// Kind implements ScoreCalculator.
func (c *PowerCalculator) Kind() reward.ScoreKind {
	return reward.ScorePower
}

// RecalculateScore recomputes power from the already-updated scores.
func (c *PowerCalculator) RecalculateScore(set *reward.RewardScoreSet, _ []reward.ContentSnapshot) (*reward.RewardScore, error) {
	return c.calculate(set), nil
}

// CalculateOnContentWorkedOn recomputes power from the already-updated
// scores. The computation is identical for both triggers.
func (c *PowerCalculator) CalculateOnContentWorkedOn(set *reward.RewardScoreSet, _ []reward.ContentSnapshot, _ shared.ContentWorkedOnEvent) (*reward.RewardScore, error) {
	return c.calculate(set), nil
}

func (c *PowerCalculator) calculate(set *reward.RewardScoreSet) *reward.RewardScore {
	power := set.Power
	oldValue := power.Value

	absolute := float64(set.Growth.Value + set.Strength.Value)
	relative := float64(set.Health.Value + set.Fitness.Value)

	raw := absolute * (1 + c.config.HealthFitnessMultiplier*0.01*relative)
	newValue := int(math.Round(raw))

	if newValue == oldValue {
		// no change, no log entry
		return power
	}

	// power is not content-attributable, the id list stays empty
	power.ApplyChange(c.now(), newValue, reward.ReasonCompositeValue, []uuid.UUID{})
	return power
}
