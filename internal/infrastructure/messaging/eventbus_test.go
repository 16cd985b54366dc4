package messaging

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnpath-hub/reward-service/internal/domain/shared"
)

func syncBusConfig() InMemoryEventBusConfig {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return cfg
}

func TestInMemoryEventBus_RoutesByEventType(t *testing.T) {
	bus := NewInMemoryEventBus(syncBusConfig())
	defer bus.Close()

	var workedOn, changed int
	require.NoError(t, bus.Subscribe(shared.EventContentWorkedOn, func(shared.Event) error {
		workedOn++
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventCourseChanged, func(shared.Event) error {
		changed++
		return nil
	}))

	event := shared.NewContentWorkedOnEvent(uuid.New(), uuid.New(), 1.0, true, 0)
	require.NoError(t, bus.Publish(event))
	require.NoError(t, bus.Publish(event))

	assert.Equal(t, 2, workedOn)
	assert.Equal(t, 0, changed)
}

func TestInMemoryEventBus_GlobalHandlerSeesEverything(t *testing.T) {
	bus := NewInMemoryEventBus(syncBusConfig())
	defer bus.Close()

	var seen []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(event shared.Event) error {
		seen = append(seen, event.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewContentWorkedOnEvent(uuid.New(), uuid.New(), 0.5, false, 1)))
	require.NoError(t, bus.Publish(shared.NewCourseChangedEvent(uuid.New(), shared.OperationDelete)))

	assert.Equal(t, []shared.EventType{shared.EventContentWorkedOn, shared.EventCourseChanged}, seen)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(syncBusConfig())
	defer bus.Close()

	var secondCalled bool
	require.NoError(t, bus.Subscribe(shared.EventContentWorkedOn, func(shared.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventContentWorkedOn, func(shared.Event) error {
		secondCalled = true
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewContentWorkedOnEvent(uuid.New(), uuid.New(), 1.0, true, 0)))
	assert.True(t, secondCalled)

	snapshot := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalPublished)
	assert.Equal(t, int64(2), snapshot.TotalHandlerExecs)
	assert.InDelta(t, 0.5, snapshot.HandlerSuccessRate, 1e-9)
}

func TestInMemoryEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	done := make(chan struct{}, 5)
	require.NoError(t, bus.Subscribe(shared.EventContentWorkedOn, func(shared.Event) error {
		done <- struct{}{}
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewContentWorkedOnEvent(uuid.New(), uuid.New(), 1.0, true, 0)))
	}

	for i := 0; i < 5; i++ {
		<-done
	}
}

func TestInMemoryEventBus_RejectsAfterClose(t *testing.T) {
	bus := NewInMemoryEventBus(syncBusConfig())
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewCourseChangedEvent(uuid.New(), shared.OperationDelete))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventCourseChanged, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}
