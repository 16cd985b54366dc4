package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/learnpath-hub/reward-service/internal/domain/reward"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXTERNAL PORTS
// Contracts for the collaborators the engine consumes. Implementations live
// in infrastructure; tests substitute fakes.
// ══════════════════════════════════════════════════════════════════════════════

// CourseClient resolves course structure and content membership.
type CourseClient interface {
	// ChapterIDsOf returns the chapter ids of a course.
	ChapterIDsOf(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error)

	// CourseIDForContent returns the course a content belongs to.
	CourseIDForContent(ctx context.Context, contentID uuid.UUID) (uuid.UUID, error)
}

// ContentClient fetches content snapshots with per-user progress.
type ContentClient interface {
	// ContentsWithProgress returns the contents of the given chapters with
	// the user's progress attached. The snapshot is fetched fresh on every
	// call and is never cached inside the engine.
	ContentsWithProgress(ctx context.Context, userID uuid.UUID, chapterIDs []uuid.UUID) ([]reward.ContentSnapshot, error)
}

// CacheInvalidator clears the course/content id cache. The engine calls it
// once at the start of every nightly sweep.
type CacheInvalidator interface {
	Invalidate()
}

// ScoreboardProjection is an optional fast-read projection of course
// scoreboards (e.g. a Redis sorted set). Updates are best-effort: a failing
// projection never fails the owning operation.
type ScoreboardProjection interface {
	// Update records the user's power value for the course.
	Update(ctx context.Context, courseID, userID uuid.UUID, powerValue int) error

	// RemoveCourse drops the course's projection entirely.
	RemoveCourse(ctx context.Context, courseID uuid.UUID) error
}
