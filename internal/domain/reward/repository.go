package reward

import (
	"context"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт хранилища наборов очков. Реализация находится в
// infrastructure/persistence. Хранилище - единственный источник истины;
// вся логика калькуляторов работает с копиями в памяти и фиксирует
// результат одним атомарным Save на операцию.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над наборами очков.
type Repository interface {
	// Get возвращает набор по ключу.
	// Второе значение false, если набора ещё нет.
	Get(ctx context.Context, key ScoreKey) (*RewardScoreSet, bool, error)

	// Save атомарно сохраняет набор вместе с журналами всех пяти очков.
	Save(ctx context.Context, set *RewardScoreSet) error

	// FindAllByCourse возвращает все наборы курса.
	FindAllByCourse(ctx context.Context, courseID uuid.UUID) ([]*RewardScoreSet, error)

	// FindAll возвращает все сохранённые наборы (для ночного пересчёта).
	FindAll(ctx context.Context) ([]*RewardScoreSet, error)

	// DeleteAllByCourse удаляет все наборы курса каскадно
	// (вместе с очками и журналами). Возвращает количество удалённых наборов.
	DeleteAllByCourse(ctx context.Context, courseID uuid.UUID) (int, error)
}
