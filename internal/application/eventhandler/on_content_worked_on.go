// Package eventhandler содержит обработчики доменных событий.
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
// ON CONTENT WORKED ON HANDLER
// Обрабатывает событие работы пользователя над учебным материалом.
//
// Ключевые функции:
// 1. Инкрементальный пересчёт всех пяти показателей через reward engine
// 2. Публикация события об обновлении показателей для подписчиков
//
// Порядок расчёта фиксирован внутри engine: power считается последним,
// поскольку зависит от остальных четырёх показателей.
// ═══════════════════════════════════════════════════════════════════════════

// OnContentWorkedOnHandler обрабатывает событие работы над материалом.
type OnContentWorkedOnHandler struct {
	engine    *engine.Engine
	publisher shared.EventPublisher

	// Logger для структурированного логирования
	logger *slog.Logger

	// Timeout на обработку одного события
	timeout time.Duration
}

// NewOnContentWorkedOnHandler создаёт новый обработчик.
func NewOnContentWorkedOnHandler(
	eng *engine.Engine,
	publisher shared.EventPublisher,
	timeout time.Duration,
	logger *slog.Logger,
) *OnContentWorkedOnHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OnContentWorkedOnHandler{
		engine:    eng,
		publisher: publisher,
		logger:    logger.With("handler", "on_content_worked_on"),
		timeout:   timeout,
	}
}

// Handle обрабатывает событие работы над материалом.
// Реализует интерфейс shared.EventHandler.
func (h *OnContentWorkedOnHandler) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	// Type assertion для получения конкретного типа события
	workedOn, ok := event.(shared.ContentWorkedOnEvent)
	if !ok {
		h.logger.Warn("received non-ContentWorkedOnEvent",
			"event_type", event.EventType(),
		)
		return nil
	}

	h.logger.Info("processing content worked on event",
		"user_id", workedOn.UserID,
		"content_id", workedOn.ContentID,
		"correctness", workedOn.Correctness,
		"success", workedOn.Success,
	)

	set, err := h.engine.OnContentWorkedOn(ctx, workedOn)
	if err != nil {
		h.logger.Error("failed to update reward scores",
			"user_id", workedOn.UserID,
			"content_id", workedOn.ContentID,
			"error", err,
		)
		return fmt.Errorf("update reward scores: %w", err)
	}

	// Публикуем событие об обновлении - некритично для основной операции
	if h.publisher != nil {
		updated := shared.NewBaseEvent(shared.EventScoresUpdated, set.Key.String())
		if err := h.publisher.Publish(updated); err != nil {
			h.logger.Warn("failed to publish scores updated event",
				"error", err,
			)
		}
	}

	h.logger.Info("reward scores updated",
		"user_id", workedOn.UserID,
		"course_id", set.Key.CourseID,
		"power", set.Power.Value,
	)

	return nil
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnContentWorkedOnHandler) EventType() shared.EventType {
	return shared.EventContentWorkedOn
}
