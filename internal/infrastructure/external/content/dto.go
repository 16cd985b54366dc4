package content

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// DATA TRANSFER OBJECTS
// Wire types of the content service API.
// ══════════════════════════════════════════════════════════════════════════════

// contentDTO is one content item with the requesting user's progress.
type contentDTO struct {
	ID               string           `json:"id"`
	ChapterID        string           `json:"chapter_id"`
	Title            string           `json:"title"`
	RewardPoints     int              `json:"reward_points"`
	SuggestedDueDate *time.Time       `json:"suggested_due_date,omitempty"`
	IsLearned        bool             `json:"is_learned"`
	IsDueForReview   bool             `json:"is_due_for_review"`
	ProgressLog      []progressLogDTO `json:"progress_log"`
}

// progressLogDTO is one attempt the user made on a content item.
type progressLogDTO struct {
	Timestamp   time.Time `json:"timestamp"`
	Correctness float64   `json:"correctness"`
	Success     bool      `json:"success"`
	HintsUsed   int       `json:"hints_used"`
}

// contentsResponseDTO is the response of GET /contents/with-progress.
type contentsResponseDTO struct {
	UserID   string       `json:"user_id"`
	Contents []contentDTO `json:"contents"`
}
