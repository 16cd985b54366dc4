// Package calculation contains the five score calculators of the reward
// engine. Each calculator is a pure function pair over the current score set,
// a fresh content snapshot and (for the incremental path) the triggering
// event. Calculators mutate the score they own in place and return it, so
// the orchestrator can assign it back onto the set.
//
// Invariant shared by all calculators: a run that does not change the score
// value appends no log entry. Running a recalculation twice with unchanged
// content is a no-op the second time.
package calculation

import (
	"time"

	"github.com/google/uuid"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
	"github.com/learnpath-hub/reward-service/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE CALCULATOR INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// ScoreCalculator computes one of the five reward scores.
// The set of implementations is fixed and statically composed by the engine;
// there is no dynamic registry.
type ScoreCalculator interface {
	// Kind returns which score of the set this calculator owns.
	Kind() reward.ScoreKind

	// RecalculateScore performs the full content-driven reassessment used
	// by the nightly batch job.
	RecalculateScore(set *reward.RewardScoreSet, contents []reward.ContentSnapshot) (*reward.RewardScore, error)

	// CalculateOnContentWorkedOn performs the incremental update triggered
	// by a single progress event.
	CalculateOnContentWorkedOn(set *reward.RewardScoreSet, contents []reward.ContentSnapshot, event shared.ContentWorkedOnEvent) (*reward.RewardScore, error)
}

// Clock returns the current time. Calculators read it once per run for log
// timestamps and due-date arithmetic; tests substitute a fixed clock.
type Clock func() time.Time

// systemClock is the default clock.
func systemClock() time.Time {
	return time.Now()
}

// findContent returns the snapshot with the given id, or nil.
func findContent(contents []reward.ContentSnapshot, id uuid.UUID) *reward.ContentSnapshot {
	for i := range contents {
		if contents[i].ID == id {
			return &contents[i]
		}
	}
	return nil
}

// containsContent reports whether a snapshot with the given id is present.
func containsContent(contents []reward.ContentSnapshot, id uuid.UUID) bool {
	return findContent(contents, id) != nil
}
