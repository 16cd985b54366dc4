package course

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHED CLIENT
// Course structure changes rarely but is read on every recalculation, so
// chapter ids and content-to-course mappings are memoized here. The cache
// is an explicit object with an Invalidate method; the nightly sweep clears
// it once before the batch so a whole sweep sees one consistent structure.
// Concurrent misses for the same key are collapsed into a single upstream
// call.
// ══════════════════════════════════════════════════════════════════════════════

// Fetcher is the upstream the cache delegates misses to.
type Fetcher interface {
	ChapterIDsOf(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error)
	CourseIDForContent(ctx context.Context, contentID uuid.UUID) (uuid.UUID, error)
}

// CachedClient memoizes course structure lookups until invalidated.
type CachedClient struct {
	upstream Fetcher

	mu         sync.RWMutex
	chapters   map[uuid.UUID][]uuid.UUID
	courseRefs map[uuid.UUID]uuid.UUID

	group singleflight.Group
}

// NewCachedClient wraps the upstream client with an invalidatable cache.
func NewCachedClient(upstream Fetcher) *CachedClient {
	return &CachedClient{
		upstream:   upstream,
		chapters:   make(map[uuid.UUID][]uuid.UUID),
		courseRefs: make(map[uuid.UUID]uuid.UUID),
	}
}

// ChapterIDsOf returns the cached chapter ids of a course, fetching on miss.
func (c *CachedClient) ChapterIDsOf(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	c.mu.RLock()
	cached, ok := c.chapters[courseID]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	value, err, _ := c.group.Do("chapters:"+courseID.String(), func() (interface{}, error) {
		ids, err := c.upstream.ChapterIDsOf(ctx, courseID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.chapters[courseID] = ids
		c.mu.Unlock()
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]uuid.UUID), nil
}

// CourseIDForContent returns the cached course of a content item, fetching
// on miss.
func (c *CachedClient) CourseIDForContent(ctx context.Context, contentID uuid.UUID) (uuid.UUID, error) {
	c.mu.RLock()
	cached, ok := c.courseRefs[contentID]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	value, err, _ := c.group.Do("course:"+contentID.String(), func() (interface{}, error) {
		courseID, err := c.upstream.CourseIDForContent(ctx, contentID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.courseRefs[contentID] = courseID
		c.mu.Unlock()
		return courseID, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return value.(uuid.UUID), nil
}

// Invalidate drops everything. The next lookup per key goes upstream.
func (c *CachedClient) Invalidate() {
	c.mu.Lock()
	c.chapters = make(map[uuid.UUID][]uuid.UUID)
	c.courseRefs = make(map[uuid.UUID]uuid.UUID)
	c.mu.Unlock()
}
