package calculation

import (
	"time"

	"github.com/google/uuid"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
	"github.com/learnpath-hub/reward-service/internal/domain/shared"
)

// Fixed point in time for all calculator tests, mid-day to keep calendar-day
// checks unambiguous.
var testNow = time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

func testClock() time.Time {
	return testNow
}

// newTestSet builds a score set with the given values and empty logs.
func newTestSet(health, fitness, growth, strength, power int) *reward.RewardScoreSet {
	key := reward.NewScoreKey(uuid.New(), uuid.New())
	set := reward.NewRewardScoreSet(key)
	set.Health.Value = health
	set.Fitness.Value = fitness
	set.Growth.Value = growth
	set.Strength.Value = strength
	set.Power.Value = power
	return set
}

// overdueContent builds a never-learned content whose due date lies the given
// number of days in the past.
func overdueContent(id uuid.UUID, daysOverdue int) reward.ContentSnapshot {
	due := testNow.Add(-time.Duration(daysOverdue) * 24 * time.Hour)
	return reward.ContentSnapshot{
		ID:               id,
		RewardPoints:     10,
		SuggestedDueDate: &due,
		IsLearned:        false,
		IsDueForReview:   false,
		ProgressLog:      []reward.ProgressLogItem{},
	}
}

// repetitionContent builds a learned content that is due for review, with a
// single prior review of the given age and correctness.
func repetitionContent(id uuid.UUID, daysOverdue int, reviewAge time.Duration, correctness float64) reward.ContentSnapshot {
	due := testNow.Add(-time.Duration(daysOverdue) * 24 * time.Hour)
	return reward.ContentSnapshot{
		ID:               id,
		RewardPoints:     10,
		SuggestedDueDate: &due,
		IsLearned:        true,
		IsDueForReview:   true,
		ProgressLog: []reward.ProgressLogItem{
			{Timestamp: testNow.Add(-reviewAge), Correctness: correctness, Success: true},
		},
	}
}

func workedOnEvent(userID, contentID uuid.UUID, correctness float64, success bool) shared.ContentWorkedOnEvent {
	return shared.NewContentWorkedOnEvent(userID, contentID, correctness, success, 0)
}
