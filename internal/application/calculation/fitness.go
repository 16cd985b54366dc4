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
// FITNESS CALCULATOR
// Fitness reflects how well the user keeps up with repetition of already
// learned material. It decays while learned contents sit past their review
// date and regenerates on successful reviews, weighted by how much the
// review correctness improved.
// ══════════════════════════════════════════════════════════════════════════════

// Fitness bounds.
const (
	fitnessMax = 100
	fitnessMin = 0
)

// FitnessConfig contains the tunables of the fitness calculator.
type FitnessConfig struct {
	// MaxDecreasePerDay caps the total fitness decrease per recalculation.
	MaxDecreasePerDay float64

	// ModifierPerDay is the multiplier applied per overdue day of each
	// due-for-repetition content.
	ModifierPerDay float64

	// RecentReviewWindow is how far back a review must lie to not be
	// considered the review that triggered the current event. An
	// approximation inherited from the scoring concept; kept configurable
	// because the exact cutoff is arbitrary.
	RecentReviewWindow time.Duration
}

// DefaultFitnessConfig returns the reference defaults.
func DefaultFitnessConfig() FitnessConfig {
	return FitnessConfig{
		MaxDecreasePerDay:  20,
		ModifierPerDay:     2,
		RecentReviewWindow: 5 * time.Minute,
	}
}

// FitnessCalculator computes the fitness score.
type FitnessCalculator struct {
	config FitnessConfig
	now    Clock
}

// NewFitnessCalculator creates a fitness calculator.
func NewFitnessCalculator(config FitnessConfig) *FitnessCalculator {
	return &FitnessCalculator{config: config, now: systemClock}
}

// NewFitnessCalculatorWithClock creates a fitness calculator with a fixed
// clock, for tests.
func NewFitnessCalculatorWithClock(config FitnessConfig, clock Clock) *FitnessCalculator {
	return &FitnessCalculator{config: config, now: clock}
}

// Kind implements ScoreCalculator.
func (c *FitnessCalculator) Kind() reward.ScoreKind {
	return reward.ScoreFitness
}

// RecalculateScore decreases fitness for learned contents that are due for
// repetition. The per-content decrease grows with the days overdue and with
// how poorly the last review went.
func (c *FitnessCalculator) RecalculateScore(set *reward.RewardScoreSet, contents []reward.ContentSnapshot) (*reward.RewardScore, error) {
	fitness := set.Fitness
	oldValue := fitness.Value

	now := c.now()

	decrease := 0.0
	for _, content := range contents {
		if !c.isDueForRepetition(content) || !content.IsLearned {
			continue
		}
		daysOverdue := c.daysOverdue(content, now)
		correctness := c.correctnessModifier(content.LatestAttempt())
		decrease += 1 + c.config.ModifierPerDay*float64(daysOverdue)*(1-correctness)
	}
	decrease = math.Min(c.config.MaxDecreasePerDay, decrease)

	newValue := int(math.Round(math.Max(fitnessMin, float64(oldValue)-decrease)))
	if newValue == oldValue {
		// no change, no log entry
		return fitness, nil
	}

	dueContents := c.contentsToRepeat(contents)
	fitness.ApplyChange(now, newValue, reward.ReasonContentDueForRepetition, reward.ContentIDs(dueContents))
	return fitness, nil
}

// CalculateOnContentWorkedOn regenerates fitness after a successful review.
// The first review of a content leaves fitness untouched (health rewards
// first-time learning), and repeated reviews on the same calendar day are
// not rewarded again.
func (c *FitnessCalculator) CalculateOnContentWorkedOn(set *reward.RewardScoreSet, contents []reward.ContentSnapshot, event shared.ContentWorkedOnEvent) (*reward.RewardScore, error) {
	fitness := set.Fitness
	oldValue := fitness.Value

	content := findContent(contents, event.ContentID)
	if content == nil {
		return nil, shared.WrapError("reward", "CalculateFitness", shared.ErrCalculation,
			"event content not present in content snapshot", nil)
	}

	now := c.now()

	previousReview := c.latestReviewExcludingTrigger(*content, now)
	if previousReview == nil {
		// first review of this content, only health is affected
		return fitness, nil
	}

	dueCount := len(c.contentsToRepeat(contents))
	regen := c.fitnessRegeneration(oldValue, dueCount, *previousReview, event)

	if regen == 0 || !event.Success || timeutil.SameCalendarDay(now, previousReview.Timestamp) {
		// nothing to regenerate, failed review, or already rewarded today
		return fitness, nil
	}

	newValue := int(math.Round(float64(oldValue) + regen))
	if !c.isDueForRepetition(*content) {
		// small fixed reward for reviewing ahead of schedule
		newValue = oldValue + 1
	}
	if newValue > fitnessMax {
		newValue = fitnessMax
	}

	if newValue == oldValue {
		return fitness, nil
	}

	fitness.ApplyChange(now, newValue, reward.ReasonContentReviewed, []uuid.UUID{event.ContentID})
	return fitness, nil
}

func (c *FitnessCalculator) isDueForRepetition(content reward.ContentSnapshot) bool {
	return content.IsDueForReview
}

// contentsToRepeat returns all contents currently due for repetition.
func (c *FitnessCalculator) contentsToRepeat(contents []reward.ContentSnapshot) []reward.ContentSnapshot {
	due := make([]reward.ContentSnapshot, 0, len(contents))
	for _, content := range contents {
		if c.isDueForRepetition(content) {
			due = append(due, content)
		}
	}
	return due
}

// daysOverdue counts how many days a content sits past its due date,
// counting the due date itself as one day.
func (c *FitnessCalculator) daysOverdue(content reward.ContentSnapshot, now time.Time) int {
	if content.SuggestedDueDate == nil {
		return 1
	}
	return timeutil.DaysOverdueInclusive(now, *content.SuggestedDueDate)
}

// correctnessModifier squares the correctness of the latest review, so that
// low correctness weighs in disproportionally.
func (c *FitnessCalculator) correctnessModifier(latest *reward.ProgressLogItem) float64 {
	if latest == nil {
		return 0
	}
	return latest.Correctness * latest.Correctness
}

// latestReviewExcludingTrigger returns the most recent review that happened
// before the one that caused the current event. Reviews within the recent
// review window around now are skipped, as they belong to the triggering
// attempt itself.
func (c *FitnessCalculator) latestReviewExcludingTrigger(content reward.ContentSnapshot, now time.Time) *reward.ProgressLogItem {
	for i := range content.ProgressLog {
		item := content.ProgressLog[i]
		if timeutil.WithinWindow(now, item.Timestamp, c.config.RecentReviewWindow) {
			continue
		}
		return &item
	}
	return nil
}

// fitnessRegeneration computes the fitness gain for a repeated review.
// The gain scales with the distance to full fitness, is spread over all
// contents currently due, and is weighted by how much the correctness
// improved compared to the previous review.
func (c *FitnessCalculator) fitnessRegeneration(fitness, dueCount int, previousReview reward.ProgressLogItem, event shared.ContentWorkedOnEvent) float64 {
	if dueCount == 0 {
		// nothing due: avoid a zero divisor, the proactive-review path
		// overrides the raw value anyway
		dueCount = 1
	}

	correctnessModifier := 1 + event.Correctness - previousReview.Correctness

	return correctnessModifier * float64(fitnessMax-fitness) / float64(dueCount)
}
