// Package reward содержит доменную модель очков награды (reward scores).
// Это ядро бизнес-логики - здесь нет внешних зависимостей кроме uuid.
//
// Каждая пара (курс, пользователь) владеет пятью очками: Health, Fitness,
// Growth, Strength и Power. Любое изменение значения фиксируется в
// append-only журнале.
package reward

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHANGE REASON
// ══════════════════════════════════════════════════════════════════════════════

// ChangeReason объясняет, почему значение очка изменилось.
type ChangeReason string

const (
	// ReasonContentDueForLearning - новый контент просрочен (не выучен вовремя).
	ReasonContentDueForLearning ChangeReason = "CONTENT_DUE_FOR_LEARNING"

	// ReasonContentDueForRepetition - выученный контент просрочен для повторения.
	ReasonContentDueForRepetition ChangeReason = "CONTENT_DUE_FOR_REPETITION"

	// ReasonContentReviewed - контент успешно повторён.
	ReasonContentReviewed ChangeReason = "CONTENT_REVIEWED"

	// ReasonContentDone - контент выполнен.
	ReasonContentDone ChangeReason = "CONTENT_DONE"

	// ReasonCompositeValue - композитное значение пересчитано из других очков.
	ReasonCompositeValue ChangeReason = "COMPOSITE_VALUE"
)

// IsValid проверяет, что причина известна.
func (r ChangeReason) IsValid() bool {
	switch r {
	case ReasonContentDueForLearning,
		ReasonContentDueForRepetition,
		ReasonContentReviewed,
		ReasonContentDone,
		ReasonCompositeValue:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE LOG ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// ScoreLogEntry - одна запись журнала изменений очка.
// Запись неизменяема после создания.
//
// Инвариант: NewValue - OldValue == Difference.
type ScoreLogEntry struct {
	// Date - момент изменения.
	Date time.Time

	// Difference - знаковая разница (NewValue - OldValue).
	Difference int

	// OldValue - значение до изменения.
	OldValue int

	// NewValue - значение после изменения.
	NewValue int

	// Reason - причина изменения.
	Reason ChangeReason

	// AssociatedContentIDs - контент, вызвавший изменение (может быть пустым).
	AssociatedContentIDs []uuid.UUID
}

// NewScoreLogEntry создаёт запись журнала. Difference выводится из old/new,
// чтобы инвариант выполнялся по построению.
func NewScoreLogEntry(date time.Time, oldValue, newValue int, reason ChangeReason, contentIDs []uuid.UUID) ScoreLogEntry {
	if contentIDs == nil {
		contentIDs = []uuid.UUID{}
	}
	return ScoreLogEntry{
		Date:                 date,
		Difference:           newValue - oldValue,
		OldValue:             oldValue,
		NewValue:             newValue,
		Reason:               reason,
		AssociatedContentIDs: contentIDs,
	}
}

// Validate проверяет инварианты записи.
func (e ScoreLogEntry) Validate() error {
	if e.NewValue-e.OldValue != e.Difference {
		return fmt.Errorf("reward: log entry difference mismatch: %d - %d != %d",
			e.NewValue, e.OldValue, e.Difference)
	}
	if !e.Reason.IsValid() {
		return fmt.Errorf("reward: unknown change reason %q", e.Reason)
	}
	return nil
}
