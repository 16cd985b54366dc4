package reward

import (
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT SNAPSHOT
// Снимок контента с прогрессом пользователя. Поставляется content-сервисом
// свежим на каждый вызов калькулятора и никогда не кешируется внутри движка.
// ══════════════════════════════════════════════════════════════════════════════

// ContentSnapshot - контент курса вместе с прогрессом конкретного пользователя.
// Только для чтения.
type ContentSnapshot struct {
	// ID - идентификатор контента.
	ID uuid.UUID

	// RewardPoints - очки мастерства за освоение контента.
	RewardPoints int

	// SuggestedDueDate - рекомендуемый срок изучения (nil, если срока нет).
	SuggestedDueDate *time.Time

	// IsLearned - контент хотя бы раз успешно выучен.
	IsLearned bool

	// IsDueForReview - контент пора повторить по графику интервального повторения.
	IsDueForReview bool

	// ProgressLog - журнал попыток, от новых к старым.
	ProgressLog []ProgressLogItem
}

// ProgressLogItem - одна попытка работы с контентом.
type ProgressLogItem struct {
	Timestamp   time.Time
	Correctness float64 // in [0,1]
	Success     bool
	HintsUsed   int
}

// IsOverdueAt возвращает true, если срок контента прошёл к моменту now.
func (c ContentSnapshot) IsOverdueAt(now time.Time) bool {
	return c.SuggestedDueDate != nil && c.SuggestedDueDate.Before(now)
}

// LatestAttempt возвращает самую свежую попытку (или nil, если журнал пуст).
func (c ContentSnapshot) LatestAttempt() *ProgressLogItem {
	if len(c.ProgressLog) == 0 {
		return nil
	}
	return &c.ProgressLog[0]
}

// ContentIDs извлекает идентификаторы из списка снимков, сохраняя порядок.
func ContentIDs(contents []ContentSnapshot) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(contents))
	for _, c := range contents {
		ids = append(ids, c.ID)
	}
	return ids
}
