package engine

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnpath-hub/reward-service/internal/application/calculation"
	"github.com/learnpath-hub/reward-service/internal/domain/reward"
	"github.com/learnpath-hub/reward-service/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeRepo struct {
	sets    map[reward.ScoreKey]*reward.RewardScoreSet
	saveErr error
	saves   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sets: make(map[reward.ScoreKey]*reward.RewardScoreSet)}
}

func (r *fakeRepo) Get(_ context.Context, key reward.ScoreKey) (*reward.RewardScoreSet, bool, error) {
	set, ok := r.sets[key]
	return set, ok, nil
}

func (r *fakeRepo) Save(_ context.Context, set *reward.RewardScoreSet) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.sets[set.Key] = set
	return nil
}

func (r *fakeRepo) FindAllByCourse(_ context.Context, courseID uuid.UUID) ([]*reward.RewardScoreSet, error) {
	var out []*reward.RewardScoreSet
	for key, set := range r.sets {
		if key.CourseID == courseID {
			out = append(out, set)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindAll(_ context.Context) ([]*reward.RewardScoreSet, error) {
	var out []*reward.RewardScoreSet
	for _, set := range r.sets {
		out = append(out, set)
	}
	return out, nil
}

func (r *fakeRepo) DeleteAllByCourse(_ context.Context, courseID uuid.UUID) (int, error) {
	deleted := 0
	for key := range r.sets {
		if key.CourseID == courseID {
			delete(r.sets, key)
			deleted++
		}
	}
	return deleted, nil
}

type fakeCourseClient struct {
	chapterIDs  []uuid.UUID
	contentToID map[uuid.UUID]uuid.UUID
	chaptersErr error
}

func (c *fakeCourseClient) ChapterIDsOf(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	if c.chaptersErr != nil {
		return nil, c.chaptersErr
	}
	return c.chapterIDs, nil
}

func (c *fakeCourseClient) CourseIDForContent(_ context.Context, contentID uuid.UUID) (uuid.UUID, error) {
	courseID, ok := c.contentToID[contentID]
	if !ok {
		return uuid.Nil, shared.ErrNotFound
	}
	return courseID, nil
}

type fakeContentClient struct {
	contents map[uuid.UUID][]reward.ContentSnapshot // keyed by user
	err      error
}

func (c *fakeContentClient) ContentsWithProgress(_ context.Context, userID uuid.UUID, _ []uuid.UUID) ([]reward.ContentSnapshot, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.contents[userID], nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate() { f.calls++ }

type fakeScoreboard struct {
	updates        int
	removedCourses []uuid.UUID
	updateErr      error
}

func (f *fakeScoreboard) Update(_ context.Context, _, _ uuid.UUID, _ int) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates++
	return nil
}

func (f *fakeScoreboard) RemoveCourse(_ context.Context, courseID uuid.UUID) error {
	f.removedCourses = append(f.removedCourses, courseID)
	return nil
}

// failingCalculator fails both operations, for abort-path tests.
type failingCalculator struct {
	kind reward.ScoreKind
}

func (c *failingCalculator) Kind() reward.ScoreKind { return c.kind }

func (c *failingCalculator) RecalculateScore(*reward.RewardScoreSet, []reward.ContentSnapshot) (*reward.RewardScore, error) {
	return nil, errors.New("boom")
}

func (c *failingCalculator) CalculateOnContentWorkedOn(*reward.RewardScoreSet, []reward.ContentSnapshot, shared.ContentWorkedOnEvent) (*reward.RewardScore, error) {
	return nil, errors.New("boom")
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixture
// ─────────────────────────────────────────────────────────────────────────────

var engineNow = time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

func engineClock() time.Time { return engineNow }

type fixture struct {
	engine     *Engine
	repo       *fakeRepo
	courses    *fakeCourseClient
	contents   *fakeContentClient
	cache      *fakeInvalidator
	scoreboard *fakeScoreboard
}

func newFixture() *fixture {
	repo := newFakeRepo()
	courses := &fakeCourseClient{
		chapterIDs:  []uuid.UUID{uuid.New()},
		contentToID: make(map[uuid.UUID]uuid.UUID),
	}
	contents := &fakeContentClient{contents: make(map[uuid.UUID][]reward.ContentSnapshot)}
	cache := &fakeInvalidator{}
	scoreboard := &fakeScoreboard{}

	health := calculation.NewHealthCalculatorWithClock(calculation.DefaultHealthConfig(), engineClock)
	calcs := []calculation.ScoreCalculator{
		health,
		calculation.NewFitnessCalculatorWithClock(calculation.DefaultFitnessConfig(), engineClock),
		calculation.NewGrowthCalculatorWithClock(engineClock),
		calculation.NewStrengthCalculator(),
		calculation.NewPowerCalculatorWithClock(calculation.DefaultPowerConfig(), engineClock),
	}

	eng := NewWithCalculators(repo, courses, contents, cache, scoreboard, health, calcs, slog.Default())
	return &fixture{engine: eng, repo: repo, courses: courses, contents: contents, cache: cache, scoreboard: scoreboard}
}

func learnedContent(id uuid.UUID, points int) reward.ContentSnapshot {
	return reward.ContentSnapshot{ID: id, RewardPoints: points, IsLearned: true}
}

func unlearnedContent(id uuid.UUID, points int) reward.ContentSnapshot {
	return reward.ContentSnapshot{ID: id, RewardPoints: points}
}

// ─────────────────────────────────────────────────────────────────────────────
// Initialization
// ─────────────────────────────────────────────────────────────────────────────

func TestEngine_Initialize_Defaults(t *testing.T) {
	f := newFixture()
	courseID, userID := uuid.New(), uuid.New()

	set, err := f.engine.Initialize(context.Background(), courseID, userID)
	require.NoError(t, err)

	assert.Equal(t, 100, set.Health.Value)
	assert.Equal(t, 100, set.Fitness.Value)
	assert.Equal(t, 0, set.Growth.Value)
	assert.Equal(t, 0, set.Strength.Value)
	assert.Equal(t, 0, set.Power.Value)

	_, found, _ := f.repo.Get(context.Background(), reward.NewScoreKey(courseID, userID))
	assert.True(t, found)
	assert.Equal(t, 1, f.scoreboard.updates)
}

func TestEngine_Initialize_SeedsHealthFromOverdueContent(t *testing.T) {
	f := newFixture()
	courseID, userID := uuid.New(), uuid.New()

	due := engineNow.Add(-24 * time.Hour)
	f.contents.contents[userID] = []reward.ContentSnapshot{
		{ID: uuid.New(), SuggestedDueDate: &due},
	}

	set, err := f.engine.Initialize(context.Background(), courseID, userID)
	require.NoError(t, err)

	assert.Equal(t, 99, set.Health.Value)
}

func TestEngine_Initialize_FallsBackToFullHealthOnClientFailure(t *testing.T) {
	f := newFixture()
	f.courses.chaptersErr = errors.New("course service down")

	set, err := f.engine.Initialize(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 100, set.Health.Value)
}

func TestEngine_GetOrInitialize_ReturnsExistingSet(t *testing.T) {
	f := newFixture()
	courseID, userID := uuid.New(), uuid.New()

	first, err := f.engine.GetOrInitialize(context.Background(), courseID, userID)
	require.NoError(t, err)
	first.Growth.Value = 42

	second, err := f.engine.GetOrInitialize(context.Background(), courseID, userID)
	require.NoError(t, err)

	assert.Equal(t, 42, second.Growth.Value)
	assert.Equal(t, 1, f.repo.saves)
}

// ─────────────────────────────────────────────────────────────────────────────
// Incremental update
// ─────────────────────────────────────────────────────────────────────────────

func TestEngine_OnContentWorkedOn_RunsCalculatorsInOrder(t *testing.T) {
	f := newFixture()
	courseID, userID := uuid.New(), uuid.New()
	contentID := uuid.New()

	f.courses.contentToID[contentID] = courseID
	f.contents.contents[userID] = []reward.ContentSnapshot{
		learnedContent(contentID, 10),
		unlearnedContent(uuid.New(), 10),
		learnedContent(uuid.New(), 20),
	}

	event := shared.NewContentWorkedOnEvent(userID, contentID, 1.0, true, 0)
	set, err := f.engine.OnContentWorkedOn(context.Background(), event)
	require.NoError(t, err)

	// growth picks up the learned points; power is composed from the whole
	// set after growth ran, which only holds if power runs last
	assert.Equal(t, 30, set.Growth.Value)
	assert.Equal(t, 36, set.Power.Value) // (30+0)*(1+0.1*0.01*200) = 36
	assert.InDelta(t, 0.75, set.Growth.Percentage, 1e-9)
}

func TestEngine_OnContentWorkedOn_UnknownContent(t *testing.T) {
	f := newFixture()

	event := shared.NewContentWorkedOnEvent(uuid.New(), uuid.New(), 1.0, true, 0)
	_, err := f.engine.OnContentWorkedOn(context.Background(), event)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestEngine_OnContentWorkedOn_NoPersistOnCalculatorFailure(t *testing.T) {
	f := newFixture()
	courseID, userID := uuid.New(), uuid.New()
	contentID := uuid.New()
	f.courses.contentToID[contentID] = courseID

	// existing set so a failing update could corrupt state if persisted
	existing := reward.NewRewardScoreSet(reward.NewScoreKey(courseID, userID))
	existing.Growth.Value = 7
	require.NoError(t, f.repo.Save(context.Background(), existing))
	savesBefore := f.repo.saves

	f.engine.calculators = append(f.engine.calculators, &failingCalculator{kind: reward.ScorePower})

	event := shared.NewContentWorkedOnEvent(userID, contentID, 1.0, true, 0)
	_, err := f.engine.OnContentWorkedOn(context.Background(), event)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrCalculation)
	assert.Equal(t, savesBefore, f.repo.saves)
}

// ─────────────────────────────────────────────────────────────────────────────
// Sweep
// ─────────────────────────────────────────────────────────────────────────────

func TestEngine_RecalculateAll_InvalidatesCacheAndProcessesAllSets(t *testing.T) {
	f := newFixture()
	courseID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := f.engine.Initialize(context.Background(), courseID, uuid.New())
		require.NoError(t, err)
	}

	stats, err := f.engine.RecalculateAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.cache.calls)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 0, stats.Failed())
}

func TestEngine_RecalculateAll_ContinuesPastSingleFailure(t *testing.T) {
	f := newFixture()
	courseID := uuid.New()
	badUser := uuid.New()

	_, err := f.engine.Initialize(context.Background(), courseID, uuid.New())
	require.NoError(t, err)
	_, err = f.engine.Initialize(context.Background(), courseID, badUser)
	require.NoError(t, err)

	// the content client fails for one user only
	f.engine.contents = &perUserFailingContentClient{inner: f.contents, failFor: badUser}

	stats, err := f.engine.RecalculateAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Failed())
}

func TestEngine_RecalculateAll_StopsOnCancelledContext(t *testing.T) {
	f := newFixture()
	courseID := uuid.New()
	_, err := f.engine.Initialize(context.Background(), courseID, uuid.New())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := f.engine.RecalculateAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stats.Processed)
}

type perUserFailingContentClient struct {
	inner   ContentClient
	failFor uuid.UUID
}

func (c *perUserFailingContentClient) ContentsWithProgress(ctx context.Context, userID uuid.UUID, chapterIDs []uuid.UUID) ([]reward.ContentSnapshot, error) {
	if userID == c.failFor {
		return nil, errors.New("content service timeout")
	}
	return c.inner.ContentsWithProgress(ctx, userID, chapterIDs)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scoreboard
// ─────────────────────────────────────────────────────────────────────────────

func TestEngine_GetScoreboard_SortsByPowerDescending(t *testing.T) {
	f := newFixture()
	courseID := uuid.New()
	strong, weak := uuid.New(), uuid.New()

	strongSet := reward.NewRewardScoreSet(reward.NewScoreKey(courseID, strong))
	strongSet.Power.Value = 30
	require.NoError(t, f.repo.Save(context.Background(), strongSet))

	weakSet := reward.NewRewardScoreSet(reward.NewScoreKey(courseID, weak))
	require.NoError(t, f.repo.Save(context.Background(), weakSet))

	// another course must not leak in
	otherSet := reward.NewRewardScoreSet(reward.NewScoreKey(uuid.New(), uuid.New()))
	otherSet.Power.Value = 99
	require.NoError(t, f.repo.Save(context.Background(), otherSet))

	items, err := f.engine.GetScoreboard(context.Background(), courseID)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, strong, items[0].UserID)
	assert.Equal(t, 30, items[0].PowerValue)
	assert.Equal(t, weak, items[1].UserID)
	assert.Equal(t, 0, items[1].PowerValue)
}

func TestEngine_GetScoreboard_EmptyCourse(t *testing.T) {
	f := newFixture()

	items, err := f.engine.GetScoreboard(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, items)
}

// ─────────────────────────────────────────────────────────────────────────────
// Course deletion
// ─────────────────────────────────────────────────────────────────────────────

func TestEngine_OnCourseDeleted_RemovesAllSetsOfCourse(t *testing.T) {
	f := newFixture()
	courseID, otherCourse := uuid.New(), uuid.New()

	for i := 0; i < 2; i++ {
		_, err := f.engine.Initialize(context.Background(), courseID, uuid.New())
		require.NoError(t, err)
	}
	_, err := f.engine.Initialize(context.Background(), otherCourse, uuid.New())
	require.NoError(t, err)

	event := shared.NewCourseChangedEvent(courseID, shared.OperationDelete)
	require.NoError(t, f.engine.OnCourseDeleted(context.Background(), event))

	remaining, _ := f.repo.FindAll(context.Background())
	require.Len(t, remaining, 1)
	assert.Equal(t, otherCourse, remaining[0].Key.CourseID)
	assert.Equal(t, []uuid.UUID{courseID}, f.scoreboard.removedCourses)
}

func TestEngine_OnCourseDeleted_IgnoresCreateAndUpdate(t *testing.T) {
	f := newFixture()
	courseID := uuid.New()
	_, err := f.engine.Initialize(context.Background(), courseID, uuid.New())
	require.NoError(t, err)

	for _, op := range []shared.CrudOperation{shared.OperationCreate, shared.OperationUpdate} {
		event := shared.NewCourseChangedEvent(courseID, op)
		require.NoError(t, f.engine.OnCourseDeleted(context.Background(), event))
	}

	remaining, _ := f.repo.FindAll(context.Background())
	assert.Len(t, remaining, 1)
	assert.Empty(t, f.scoreboard.removedCourses)
}

func TestEngine_OnCourseDeleted_RejectsIncompleteEvent(t *testing.T) {
	f := newFixture()
	courseID := uuid.New()
	_, err := f.engine.Initialize(context.Background(), courseID, uuid.New())
	require.NoError(t, err)

	err = f.engine.OnCourseDeleted(context.Background(), shared.CourseChangedEvent{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrIncompleteEvent)

	remaining, _ := f.repo.FindAll(context.Background())
	assert.Len(t, remaining, 1)
}

// ─────────────────────────────────────────────────────────────────────────────
// Recalculation
// ─────────────────────────────────────────────────────────────────────────────

func TestEngine_RecalculateOne_AppliesHealthDecay(t *testing.T) {
	f := newFixture()
	courseID, userID := uuid.New(), uuid.New()

	_, err := f.engine.Initialize(context.Background(), courseID, userID)
	require.NoError(t, err)

	due := engineNow.Add(-24 * time.Hour)
	f.contents.contents[userID] = []reward.ContentSnapshot{
		{ID: uuid.New(), SuggestedDueDate: &due},
	}

	set, err := f.engine.RecalculateOne(context.Background(), courseID, userID)
	require.NoError(t, err)

	assert.Equal(t, 99, set.Health.Value)
	require.NotEmpty(t, set.Health.Log)
	assert.Equal(t, reward.ReasonContentDueForLearning, set.Health.Log[0].Reason)
}

func TestEngine_RecalculateOne_LazilyInitializes(t *testing.T) {
	f := newFixture()

	set, err := f.engine.RecalculateOne(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 100, set.Health.Value)
}
