// Package engine contains the reward engine: the orchestrator that sequences
// the five score calculators, owns initialization, the nightly batch
// recalculation, incremental updates, the scoreboard projection and cascading
// deletion.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/learnpath-hub/reward-service/internal/application/calculation"
	"github.com/learnpath-hub/reward-service/internal/domain/reward"
	"github.com/learnpath-hub/reward-service/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Config bundles the calculator tunables.
type Config struct {
	Health  calculation.HealthConfig
	Fitness calculation.FitnessConfig
	Power   calculation.PowerConfig
}

// DefaultConfig returns the reference defaults for all calculators.
func DefaultConfig() Config {
	return Config{
		Health:  calculation.DefaultHealthConfig(),
		Fitness: calculation.DefaultFitnessConfig(),
		Power:   calculation.DefaultPowerConfig(),
	}
}

// Engine orchestrates the five score calculators over the persisted score
// sets. All mutations go through one atomic Save per operation; a failing
// calculator aborts the operation without persisting a partial result.
type Engine struct {
	repo     reward.Repository
	courses  CourseClient
	contents ContentClient

	// optional collaborators
	cache      CacheInvalidator
	scoreboard ScoreboardProjection

	// health is kept separately for InitialHealthFor; calculators holds
	// all five in their fixed evaluation order, power last.
	health      *calculation.HealthCalculator
	calculators []calculation.ScoreCalculator

	locks  *keyLock
	logger *slog.Logger
}

// New creates a reward engine. Cache and scoreboard may be nil.
func New(
	repo reward.Repository,
	courses CourseClient,
	contents ContentClient,
	cache CacheInvalidator,
	scoreboard ScoreboardProjection,
	config Config,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	health := calculation.NewHealthCalculator(config.Health)

	return &Engine{
		repo:       repo,
		courses:    courses,
		contents:   contents,
		cache:      cache,
		scoreboard: scoreboard,
		health:     health,
		calculators: []calculation.ScoreCalculator{
			health,
			calculation.NewFitnessCalculator(config.Fitness),
			calculation.NewGrowthCalculator(),
			calculation.NewStrengthCalculator(),
			calculation.NewPowerCalculator(config.Power),
		},
		locks:  newKeyLock(),
		logger: logger,
	}
}

// NewWithCalculators creates an engine with explicit calculators, for tests
// that need fixed clocks. The slice must hold the five calculators in
// evaluation order with power last; the first must be the health calculator.
func NewWithCalculators(
	repo reward.Repository,
	courses CourseClient,
	contents ContentClient,
	cache CacheInvalidator,
	scoreboard ScoreboardProjection,
	health *calculation.HealthCalculator,
	calculators []calculation.ScoreCalculator,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:        repo,
		courses:     courses,
		contents:    contents,
		cache:       cache,
		scoreboard:  scoreboard,
		health:      health,
		calculators: calculators,
		locks:       newKeyLock(),
		logger:      logger,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Initialization
// ─────────────────────────────────────────────────────────────────────────────

// Initialize creates and persists a new score set with default values.
// Health is seeded from the current course contents when they can be
// fetched; on an external-client failure the engine falls back to full
// health instead of failing the whole operation.
func (e *Engine) Initialize(ctx context.Context, courseID, userID uuid.UUID) (*reward.RewardScoreSet, error) {
	key := reward.NewScoreKey(courseID, userID)

	unlock := e.locks.Lock(key)
	defer unlock()

	return e.initialize(ctx, key)
}

// GetOrInitialize returns the score set for the key, creating it lazily on
// first access.
func (e *Engine) GetOrInitialize(ctx context.Context, courseID, userID uuid.UUID) (*reward.RewardScoreSet, error) {
	key := reward.NewScoreKey(courseID, userID)

	unlock := e.locks.Lock(key)
	defer unlock()

	return e.getOrInitialize(ctx, key)
}

// GetScores is the query surface for a single user's scores, with logs.
func (e *Engine) GetScores(ctx context.Context, courseID, userID uuid.UUID) (*reward.RewardScoreSet, error) {
	return e.GetOrInitialize(ctx, courseID, userID)
}

func (e *Engine) getOrInitialize(ctx context.Context, key reward.ScoreKey) (*reward.RewardScoreSet, error) {
	set, found, err := e.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("engine: load score set %s: %w", key, err)
	}
	if found {
		return set, nil
	}
	return e.initialize(ctx, key)
}

func (e *Engine) initialize(ctx context.Context, key reward.ScoreKey) (*reward.RewardScoreSet, error) {
	set := reward.NewRewardScoreSet(key)

	// fail-soft: a course with overdue material starts below full health,
	// but an unreachable course service must not block initialization
	contents, err := e.fetchContents(ctx, key.CourseID, key.UserID)
	if err != nil {
		e.logger.Error("failed to fetch contents for initial health, falling back to default",
			"course_id", key.CourseID, "user_id", key.UserID, "error", err)
	} else {
		set.Health = reward.NewRewardScore(e.health.InitialHealthFor(contents))
	}

	if err := e.repo.Save(ctx, set); err != nil {
		return nil, fmt.Errorf("engine: save initial score set %s: %w", key, err)
	}

	e.updateScoreboard(ctx, set)
	return set, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Recalculation (nightly batch path)
// ─────────────────────────────────────────────────────────────────────────────

// RecalculateOne loads (or lazily creates) the score set, fetches a fresh
// content snapshot and runs all five calculators' full reassessment in their
// fixed order, power last. The set is persisted only if every calculator
// succeeded.
func (e *Engine) RecalculateOne(ctx context.Context, courseID, userID uuid.UUID) (*reward.RewardScoreSet, error) {
	key := reward.NewScoreKey(courseID, userID)

	unlock := e.locks.Lock(key)
	defer unlock()

	set, err := e.getOrInitialize(ctx, key)
	if err != nil {
		return nil, err
	}

	contents, err := e.fetchContents(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}

	for _, calc := range e.calculators {
		score, err := calc.RecalculateScore(set, contents)
		if err != nil {
			return nil, shared.WrapError("reward", "Recalculate", shared.ErrCalculation,
				fmt.Sprintf("could not recalculate %s score", calc.Kind()), err)
		}
		e.assign(set, calc.Kind(), score)
	}

	if err := e.repo.Save(ctx, set); err != nil {
		return nil, fmt.Errorf("engine: save score set %s: %w", key, err)
	}

	e.updateScoreboard(ctx, set)
	return set, nil
}

// RecalculateAll runs the nightly sweep: the id cache is invalidated once,
// then every persisted set is recalculated sequentially. A single set's
// failure is logged and skipped; the sweep is interruptible between sets.
func (e *Engine) RecalculateAll(ctx context.Context) (*SweepStats, error) {
	stats := NewSweepStats()

	if e.cache != nil {
		e.cache.Invalidate()
	}

	sets, err := e.repo.FindAll(ctx)
	if err != nil {
		return stats.Finish(), fmt.Errorf("engine: load score sets for sweep: %w", err)
	}
	stats.Total = len(sets)

	for _, set := range sets {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("recalculation sweep interrupted",
				"processed", stats.Processed, "total", stats.Total)
			return stats.Finish(), err
		}

		if _, err := e.RecalculateOne(ctx, set.Key.CourseID, set.Key.UserID); err != nil {
			// one user's failure must not abort the sweep
			stats.RecordFailure(set.Key, err)
			e.logger.Error("could not recalculate reward scores",
				"course_id", set.Key.CourseID, "user_id", set.Key.UserID, "error", err)
			continue
		}
		stats.Processed++
	}

	e.logger.Info("recalculated reward scores", "processed", stats.Processed, "failed", stats.Failed())
	return stats.Finish(), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Incremental update (event path)
// ─────────────────────────────────────────────────────────────────────────────

// OnContentWorkedOn resolves the event's course, loads (or lazily creates)
// the score set and runs all five calculators' incremental update in their
// fixed order, power last. A failure in any calculator aborts the whole
// update without persisting a partial result.
func (e *Engine) OnContentWorkedOn(ctx context.Context, event shared.ContentWorkedOnEvent) (*reward.RewardScoreSet, error) {
	courseID, err := e.courses.CourseIDForContent(ctx, event.ContentID)
	if err != nil {
		return nil, fmt.Errorf("engine: resolve course for content %s: %w", event.ContentID, err)
	}

	key := reward.NewScoreKey(courseID, event.UserID)

	unlock := e.locks.Lock(key)
	defer unlock()

	set, err := e.getOrInitialize(ctx, key)
	if err != nil {
		return nil, err
	}

	contents, err := e.fetchContents(ctx, courseID, event.UserID)
	if err != nil {
		return nil, err
	}

	for _, calc := range e.calculators {
		score, err := calc.CalculateOnContentWorkedOn(set, contents, event)
		if err != nil {
			return nil, shared.WrapError("reward", "OnContentWorkedOn", shared.ErrCalculation,
				fmt.Sprintf("could not calculate %s score", calc.Kind()), err)
		}
		e.assign(set, calc.Kind(), score)
	}

	if err := e.repo.Save(ctx, set); err != nil {
		return nil, fmt.Errorf("engine: save score set %s: %w", key, err)
	}

	e.updateScoreboard(ctx, set)
	return set, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scoreboard
// ─────────────────────────────────────────────────────────────────────────────

// GetScoreboard projects all score sets of a course to (user, power) pairs,
// sorted by power from highest to lowest. The sort is stable, so the order
// of ties does not change within one call.
func (e *Engine) GetScoreboard(ctx context.Context, courseID uuid.UUID) ([]reward.ScoreboardItem, error) {
	sets, err := e.repo.FindAllByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("engine: load score sets for course %s: %w", courseID, err)
	}

	items := make([]reward.ScoreboardItem, 0, len(sets))
	for _, set := range sets {
		items = append(items, reward.ScoreboardItem{
			UserID:     set.Key.UserID,
			PowerValue: set.Power.Value,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PowerValue > items[j].PowerValue
	})

	return items, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Course deletion
// ─────────────────────────────────────────────────────────────────────────────

// OnCourseDeleted validates the course-changed event and, for DELETE
// operations, removes every score set of the course together with its
// scores and logs. CREATE and UPDATE operations are deliberate no-ops.
func (e *Engine) OnCourseDeleted(ctx context.Context, event shared.CourseChangedEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	if *event.Operation != shared.OperationDelete {
		return nil
	}

	deleted, err := e.repo.DeleteAllByCourse(ctx, *event.CourseID)
	if err != nil {
		return fmt.Errorf("engine: delete score sets for course %s: %w", *event.CourseID, err)
	}

	if e.scoreboard != nil {
		if err := e.scoreboard.RemoveCourse(ctx, *event.CourseID); err != nil {
			e.logger.Warn("failed to drop scoreboard projection",
				"course_id", *event.CourseID, "error", err)
		}
	}

	e.logger.Info("removed reward data for deleted course",
		"course_id", *event.CourseID, "sets_deleted", deleted)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// fetchContents resolves the course's chapters and fetches the user's
// content snapshot across them.
func (e *Engine) fetchContents(ctx context.Context, courseID, userID uuid.UUID) ([]reward.ContentSnapshot, error) {
	chapterIDs, err := e.courses.ChapterIDsOf(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch chapter ids for course %s: %w", courseID, err)
	}

	contents, err := e.contents.ContentsWithProgress(ctx, userID, chapterIDs)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch contents for user %s: %w", userID, err)
	}

	return contents, nil
}

// assign writes the calculator result back onto the set.
func (e *Engine) assign(set *reward.RewardScoreSet, kind reward.ScoreKind, score *reward.RewardScore) {
	switch kind {
	case reward.ScoreHealth:
		set.Health = score
	case reward.ScoreFitness:
		set.Fitness = score
	case reward.ScoreGrowth:
		set.Growth = score
	case reward.ScoreStrength:
		set.Strength = score
	case reward.ScorePower:
		set.Power = score
	}
}

// updateScoreboard refreshes the optional projection, best-effort.
func (e *Engine) updateScoreboard(ctx context.Context, set *reward.RewardScoreSet) {
	if e.scoreboard == nil {
		return
	}
	if err := e.scoreboard.Update(ctx, set.Key.CourseID, set.Key.UserID, set.Power.Value); err != nil {
		e.logger.Warn("failed to update scoreboard projection",
			"course_id", set.Key.CourseID, "user_id", set.Key.UserID, "error", err)
	}
}
