package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/learnpath-hub/reward-service/internal/application/engine"
	"github.com/learnpath-hub/reward-service/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON COURSE CHANGED HANDLER
// Обрабатывает событие изменения курса во внешнем course service.
//
// Ключевые функции:
// 1. Валидация события - неполные сообщения отклоняются, а не домысливаются
// 2. Каскадное удаление наград при удалении курса
//
// CREATE и UPDATE намеренно игнорируются: наборы показателей создаются
// лениво при первом обращении пользователя к курсу.
// ═══════════════════════════════════════════════════════════════════════════

// OnCourseChangedHandler обрабатывает событие изменения курса.
type OnCourseChangedHandler struct {
	engine *engine.Engine

	// Logger для структурированного логирования
	logger *slog.Logger

	// Timeout на обработку одного события
	timeout time.Duration
}

// NewOnCourseChangedHandler создаёт новый обработчик.
func NewOnCourseChangedHandler(
	eng *engine.Engine,
	timeout time.Duration,
	logger *slog.Logger,
) *OnCourseChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OnCourseChangedHandler{
		engine:  eng,
		logger:  logger.With("handler", "on_course_changed"),
		timeout: timeout,
	}
}

// Handle обрабатывает событие изменения курса.
// Реализует интерфейс shared.EventHandler.
func (h *OnCourseChangedHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	// Type assertion для получения конкретного типа события
	changed, ok := event.(shared.CourseChangedEvent)
	if !ok {
		h.logger.Warn("received non-CourseChangedEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	if err := changed.Validate(); err != nil {
		h.logger.Error("rejected malformed course changed event",
			"error", err,
		)
		return fmt.Errorf("validate course changed event: %w", err)
	}

	h.logger.Info("processing course changed event",
		"course_id", *changed.CourseID,
		"operation", *changed.Operation,
	)

	if err := h.engine.OnCourseDeleted(ctx, changed); err != nil {
		h.logger.Error("failed to process course change",
			"course_id", *changed.CourseID,
			"error", err,
		)
		return fmt.Errorf("process course change: %w", err)
	}

	return nil
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnCourseChangedHandler) EventType() shared.EventType {
	return shared.EventCourseChanged
}
