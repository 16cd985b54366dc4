package content

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ContentsWithProgress(t *testing.T) {
	userID := uuid.New()
	contentID := uuid.New()
	chapterID := uuid.New()
	due := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contents/with-progress", r.URL.Path)
		assert.Equal(t, userID.String(), r.URL.Query().Get("user_id"))
		assert.Equal(t, chapterID.String(), r.URL.Query().Get("chapter_ids"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"user_id": %q,
			"contents": [{
				"id": %q,
				"chapter_id": %q,
				"title": "binary search",
				"reward_points": 15,
				"suggested_due_date": %q,
				"is_learned": true,
				"is_due_for_review": true,
				"progress_log": [
					{"timestamp": "2024-05-01T10:00:00Z", "correctness": 0.5, "success": false, "hints_used": 2},
					{"timestamp": "2024-05-08T10:00:00Z", "correctness": 0.9, "success": true, "hints_used": 0}
				]
			}]
		}`, userID, contentID, chapterID, due.Format(time.RFC3339))
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL))

	snapshots, err := client.ContentsWithProgress(context.Background(), userID, []uuid.UUID{chapterID})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	snapshot := snapshots[0]
	assert.Equal(t, contentID, snapshot.ID)
	assert.Equal(t, 15, snapshot.RewardPoints)
	assert.True(t, snapshot.IsLearned)
	assert.True(t, snapshot.IsDueForReview)
	require.NotNil(t, snapshot.SuggestedDueDate)
	assert.True(t, due.Equal(*snapshot.SuggestedDueDate))

	// log must come out newest first even though the wire order is oldest first
	require.Len(t, snapshot.ProgressLog, 2)
	assert.InDelta(t, 0.9, snapshot.ProgressLog[0].Correctness, 1e-9)
	assert.True(t, snapshot.ProgressLog[0].Success)
	assert.InDelta(t, 0.5, snapshot.ProgressLog[1].Correctness, 1e-9)
	assert.Equal(t, 2, snapshot.ProgressLog[1].HintsUsed)
}

func TestClient_ContentsWithProgress_NoChapters(t *testing.T) {
	client := NewClient(DefaultClientConfig("http://unused"))

	snapshots, err := client.ContentsWithProgress(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, snapshots)
}

func TestMapper_RejectsMalformedID(t *testing.T) {
	mapper := NewMapper()

	_, err := mapper.SnapshotFromDTO(contentDTO{ID: "not-a-uuid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed content id")
}
