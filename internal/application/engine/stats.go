package engine

import (
	"time"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sweep statistics
// ─────────────────────────────────────────────────────────────────────────────

// SweepFailure records a single score set the sweep could not recalculate.
type SweepFailure struct {
	Key   reward.ScoreKey
	Error string
}

// SweepStats accumulates the outcome of one full recalculation sweep.
type SweepStats struct {
	Total     int
	Processed int
	Failures  []SweepFailure
	StartedAt time.Time
	Duration  time.Duration
}

// NewSweepStats starts the sweep clock.
func NewSweepStats() *SweepStats {
	return &SweepStats{StartedAt: time.Now()}
}

// RecordFailure notes a set that could not be recalculated.
func (s *SweepStats) RecordFailure(key reward.ScoreKey, err error) {
	s.Failures = append(s.Failures, SweepFailure{Key: key, Error: err.Error()})
}

// Failed returns the number of sets the sweep skipped.
func (s *SweepStats) Failed() int {
	return len(s.Failures)
}

// Finish stops the sweep clock and returns the stats for chaining.
func (s *SweepStats) Finish() *SweepStats {
	s.Duration = time.Since(s.StartedAt)
	return s
}
