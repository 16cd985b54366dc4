package reward

import (
	"fmt"

	"github.com/google/uuid"
)

// Начальные значения очков для нового набора.
// Health и Fitness - относительные очки, Growth, Strength и Power - абсолютные.
const (
	InitialRelativeScore = 100
	InitialAbsoluteScore = 0
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE KEY
// ══════════════════════════════════════════════════════════════════════════════

// ScoreKey - составной ключ набора очков: (курс, пользователь).
type ScoreKey struct {
	CourseID uuid.UUID
	UserID   uuid.UUID
}

// NewScoreKey создаёт ключ набора.
func NewScoreKey(courseID, userID uuid.UUID) ScoreKey {
	return ScoreKey{CourseID: courseID, UserID: userID}
}

// IsValid проверяет, что оба идентификатора заданы.
func (k ScoreKey) IsValid() bool {
	return k.CourseID != uuid.Nil && k.UserID != uuid.Nil
}

// String возвращает строковое представление ключа.
func (k ScoreKey) String() string {
	return fmt.Sprintf("%s/%s", k.CourseID, k.UserID)
}

// ══════════════════════════════════════════════════════════════════════════════
// REWARD SCORE SET
// ══════════════════════════════════════════════════════════════════════════════

// RewardScoreSet - пять очков награды одной пары (курс, пользователь).
// Набор эксклюзивно владеет очками: удаление набора удаляет очки и их журналы.
//
// Жизненный цикл: создаётся лениво при первом обращении, мутируется
// оркестратором, удаляется при удалении курса.
type RewardScoreSet struct {
	Key ScoreKey

	Health   *RewardScore
	Fitness  *RewardScore
	Growth   *RewardScore
	Strength *RewardScore
	Power    *RewardScore
}

// NewRewardScoreSet создаёт набор со значениями по умолчанию:
// health=100, fitness=100, growth=0, strength=0, power=0.
func NewRewardScoreSet(key ScoreKey) *RewardScoreSet {
	return &RewardScoreSet{
		Key:      key,
		Health:   NewRewardScore(InitialRelativeScore),
		Fitness:  NewRewardScore(InitialRelativeScore),
		Growth:   NewRewardScore(InitialAbsoluteScore),
		Strength: NewRewardScore(InitialAbsoluteScore),
		Power:    NewRewardScore(InitialAbsoluteScore),
	}
}

// Score возвращает очко по виду.
func (s *RewardScoreSet) Score(kind ScoreKind) *RewardScore {
	switch kind {
	case ScoreHealth:
		return s.Health
	case ScoreFitness:
		return s.Fitness
	case ScoreGrowth:
		return s.Growth
	case ScoreStrength:
		return s.Strength
	case ScorePower:
		return s.Power
	default:
		return nil
	}
}

// Validate проверяет ключ и журналы всех пяти очков.
func (s *RewardScoreSet) Validate() error {
	if !s.Key.IsValid() {
		return fmt.Errorf("reward: invalid score key %s", s.Key)
	}
	for _, kind := range []ScoreKind{ScoreHealth, ScoreFitness, ScoreGrowth, ScoreStrength, ScorePower} {
		score := s.Score(kind)
		if score == nil {
			return fmt.Errorf("reward: missing %s score", kind)
		}
		if err := score.Validate(); err != nil {
			return fmt.Errorf("reward: %s: %w", kind, err)
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCOREBOARD
// ══════════════════════════════════════════════════════════════════════════════

// ScoreboardItem - строка таблицы лидеров курса: пользователь и его Power.
type ScoreboardItem struct {
	UserID     uuid.UUID
	PowerValue int
}
