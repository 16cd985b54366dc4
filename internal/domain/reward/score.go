package reward

import (
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// REWARD SCORE
// ══════════════════════════════════════════════════════════════════════════════

// ScoreKind различает пять очков набора.
type ScoreKind string

const (
	ScoreHealth   ScoreKind = "health"
	ScoreFitness  ScoreKind = "fitness"
	ScoreGrowth   ScoreKind = "growth"
	ScoreStrength ScoreKind = "strength"
	ScorePower    ScoreKind = "power"
)

// RewardScore - одно скалярное очко с журналом изменений.
//
// Значение меняют только калькуляторы. Очко не удаляется отдельно -
// только вместе с владеющим набором.
type RewardScore struct {
	// Value - текущее значение очка.
	Value int

	// Percentage - доля освоенного материала в [0,1].
	// Имеет смысл только для Growth, для остальных очков всегда 0.
	Percentage float64

	// Log - журнал изменений, отсортированный от новых к старым.
	Log []ScoreLogEntry
}

// NewRewardScore создаёт очко с начальным значением и пустым журналом.
func NewRewardScore(initialValue int) *RewardScore {
	return &RewardScore{
		Value: initialValue,
		Log:   []ScoreLogEntry{},
	}
}

// ApplyChange устанавливает новое значение и добавляет запись в начало
// журнала (журнал хранится от новых к старым).
//
// Вызывающий обязан НЕ вызывать ApplyChange, если значение не изменилось:
// неизменившееся очко не должно порождать запись журнала.
func (s *RewardScore) ApplyChange(now time.Time, newValue int, reason ChangeReason, contentIDs []uuid.UUID) {
	entry := NewScoreLogEntry(now, s.Value, newValue, reason, contentIDs)
	s.Value = newValue
	s.Log = append([]ScoreLogEntry{entry}, s.Log...)
}

// LatestEntry возвращает самую свежую запись журнала (или nil, если журнал пуст).
func (s *RewardScore) LatestEntry() *ScoreLogEntry {
	if len(s.Log) == 0 {
		return nil
	}
	return &s.Log[0]
}

// Validate проверяет все записи журнала.
func (s *RewardScore) Validate() error {
	for _, entry := range s.Log {
		if err := entry.Validate(); err != nil {
			return err
		}
	}
	return nil
}
