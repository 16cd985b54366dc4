package course

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnpath-hub/reward-service/internal/domain/shared"
)

func TestClient_ChapterIDsOf(t *testing.T) {
	courseID := uuid.New()
	first, second := uuid.New(), uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/courses/"+courseID.String()+"/chapters", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"course_id":%q,"chapters":[{"id":%q,"order":1},{"id":%q,"order":2}]}`,
			courseID, first, second)
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL))

	ids, err := client.ChapterIDsOf(context.Background(), courseID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
}

func TestClient_CourseIDForContent(t *testing.T) {
	contentID, courseID := uuid.New(), uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contents/"+contentID.String()+"/course", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"content_id":%q,"course_id":%q}`, contentID, courseID)
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL))

	got, err := client.CourseIDForContent(context.Background(), contentID)
	require.NoError(t, err)
	assert.Equal(t, courseID, got)
}

func TestClient_RetriesTransientErrors(t *testing.T) {
	courseID := uuid.New()
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, `{"course_id":%q,"chapters":[]}`, courseID)
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL))

	ids, err := client.ChapterIDsOf(context.Background(), courseID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL))

	_, err := client.CourseIDForContent(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, err, shared.ErrExternalService)
	assert.Equal(t, int32(1), calls.Load())
}

// ─────────────────────────────────────────────────────────────────────────────
// Cache
// ─────────────────────────────────────────────────────────────────────────────

type countingFetcher struct {
	chapterCalls atomic.Int32
	courseCalls  atomic.Int32
	chapterIDs   []uuid.UUID
	courseID     uuid.UUID
}

func (f *countingFetcher) ChapterIDsOf(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	f.chapterCalls.Add(1)
	return f.chapterIDs, nil
}

func (f *countingFetcher) CourseIDForContent(_ context.Context, _ uuid.UUID) (uuid.UUID, error) {
	f.courseCalls.Add(1)
	return f.courseID, nil
}

func TestCachedClient_MemoizesUntilInvalidated(t *testing.T) {
	upstream := &countingFetcher{
		chapterIDs: []uuid.UUID{uuid.New()},
		courseID:   uuid.New(),
	}
	cached := NewCachedClient(upstream)
	ctx := context.Background()
	courseID, contentID := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		ids, err := cached.ChapterIDsOf(ctx, courseID)
		require.NoError(t, err)
		assert.Equal(t, upstream.chapterIDs, ids)

		got, err := cached.CourseIDForContent(ctx, contentID)
		require.NoError(t, err)
		assert.Equal(t, upstream.courseID, got)
	}
	assert.Equal(t, int32(1), upstream.chapterCalls.Load())
	assert.Equal(t, int32(1), upstream.courseCalls.Load())

	cached.Invalidate()

	_, err := cached.ChapterIDsOf(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), upstream.chapterCalls.Load())
}
