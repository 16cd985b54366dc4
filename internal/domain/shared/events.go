package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// The reward engine consumes the inbound events and the worker emits the
// system events for observability.
const (
	// Inbound events from other services
	EventContentWorkedOn EventType = "content.worked_on"
	EventCourseChanged   EventType = "course.changed"

	// Reward events
	EventScoresRecalculated EventType = "reward.scores_recalculated"
	EventScoresUpdated      EventType = "reward.scores_updated"

	// System events
	EventSweepCompleted EventType = "system.sweep_completed"
)

// CrudOperation describes what happened to a course.
type CrudOperation string

const (
	OperationCreate CrudOperation = "CREATE"
	OperationUpdate CrudOperation = "UPDATE"
	OperationDelete CrudOperation = "DELETE"
)

// IsValid checks that the operation is one of the known values.
func (op CrudOperation) IsValid() bool {
	switch op {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	default:
		return false
	}
}

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Inbound Events
// ═══════════════════════════════════════════════════════════════════════════

// ContentWorkedOnEvent is received when a user works on a content item.
// It carries the outcome of the attempt as reported by the content service.
type ContentWorkedOnEvent struct {
	BaseEvent
	UserID      uuid.UUID `json:"user_id"`
	ContentID   uuid.UUID `json:"content_id"`
	Correctness float64   `json:"correctness"` // in [0,1]
	Success     bool      `json:"success"`
	HintsUsed   int       `json:"hints_used"`
}

// NewContentWorkedOnEvent creates a new content-worked-on event.
func NewContentWorkedOnEvent(userID, contentID uuid.UUID, correctness float64, success bool, hintsUsed int) ContentWorkedOnEvent {
	return ContentWorkedOnEvent{
		BaseEvent:   NewBaseEvent(EventContentWorkedOn, contentID.String()),
		UserID:      userID,
		ContentID:   contentID,
		Correctness: correctness,
		Success:     success,
		HintsUsed:   hintsUsed,
	}
}

// CourseChangedEvent is received when a course is created, updated or deleted.
// CourseID and Operation are pointers so that an incomplete message can be
// detected and rejected instead of being silently defaulted.
type CourseChangedEvent struct {
	BaseEvent
	CourseID  *uuid.UUID     `json:"course_id"`
	Operation *CrudOperation `json:"operation"`
}

// NewCourseChangedEvent creates a new course-changed event.
func NewCourseChangedEvent(courseID uuid.UUID, operation CrudOperation) CourseChangedEvent {
	return CourseChangedEvent{
		BaseEvent: NewBaseEvent(EventCourseChanged, courseID.String()),
		CourseID:  &courseID,
		Operation: &operation,
	}
}

// Validate checks that all required fields are present.
func (e CourseChangedEvent) Validate() error {
	if e.CourseID == nil || e.Operation == nil {
		return ErrIncompleteEvent
	}
	if !e.Operation.IsValid() {
		return WrapError("reward", "Validate", ErrValidation, "unknown course operation", nil)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
