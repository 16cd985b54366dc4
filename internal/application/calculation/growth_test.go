package calculation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
)

func growthContent(points int, learned bool) reward.ContentSnapshot {
	return reward.ContentSnapshot{
		ID:           uuid.New(),
		RewardPoints: points,
		IsLearned:    learned,
	}
}

func TestGrowthRecalculate_IsNoOp(t *testing.T) {
	calc := NewGrowthCalculatorWithClock(testClock)
	set := newTestSet(100, 100, 10, 0, 0)

	contents := []reward.ContentSnapshot{growthContent(50, true)}

	growth, err := calc.RecalculateScore(set, contents)
	require.NoError(t, err)

	assert.Equal(t, 10, growth.Value)
	assert.Empty(t, growth.Log)
}

func TestGrowthWorkedOn_SumsLearnedRewardPoints(t *testing.T) {
	calc := NewGrowthCalculatorWithClock(testClock)
	set := newTestSet(100, 100, 0, 0, 0)
	eventContentID := uuid.New()

	contents := []reward.ContentSnapshot{
		growthContent(10, true),
		growthContent(10, false),
		growthContent(20, true),
	}

	growth, err := calc.CalculateOnContentWorkedOn(set, contents,
		workedOnEvent(set.Key.UserID, eventContentID, 1.0, true))
	require.NoError(t, err)

	assert.Equal(t, 30, growth.Value)
	assert.InDelta(t, 0.75, growth.Percentage, 1e-9)
	require.Len(t, growth.Log, 1)

	entry := growth.Log[0]
	assert.Equal(t, 30, entry.Difference)
	assert.Equal(t, reward.ReasonContentDone, entry.Reason)
	assert.Equal(t, []uuid.UUID{eventContentID}, entry.AssociatedContentIDs)
}

func TestGrowthWorkedOn_NoChangeNoLog(t *testing.T) {
	calc := NewGrowthCalculatorWithClock(testClock)
	set := newTestSet(100, 100, 30, 0, 0)

	contents := []reward.ContentSnapshot{
		growthContent(10, true),
		growthContent(20, true),
	}

	growth, err := calc.CalculateOnContentWorkedOn(set, contents,
		workedOnEvent(set.Key.UserID, uuid.New(), 1.0, true))
	require.NoError(t, err)

	assert.Equal(t, 30, growth.Value)
	assert.Empty(t, growth.Log)
}

func TestGrowthWorkedOn_EmptyCourse(t *testing.T) {
	calc := NewGrowthCalculatorWithClock(testClock)
	set := newTestSet(100, 100, 10, 0, 0)

	growth, err := calc.CalculateOnContentWorkedOn(set, nil,
		workedOnEvent(set.Key.UserID, uuid.New(), 1.0, true))
	require.NoError(t, err)

	// value drops to zero and the percentage guard avoids dividing by zero
	assert.Equal(t, 0, growth.Value)
	assert.Zero(t, growth.Percentage)
	require.Len(t, growth.Log, 1)
	assert.Equal(t, -10, growth.Log[0].Difference)
}
