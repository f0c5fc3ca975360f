package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hyperpc/marketsync/internal/domain/shared"
)

type testEvent struct {
	shared.BaseDomainEvent
	Seq int
}

func newTestEvent(eventType string, seq int) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "SyncRun", "run-1"),
		Seq:             seq,
	}
}

type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_SynchronousBeforeStart(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("SyncRunStarted")
	bus.Subscribe(handler)

	event := newTestEvent("SyncRunStarted", 1)
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1, "delivery must complete before Publish returns")
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	started := newTestHandler()
	failed := newTestHandler()
	all := newTestHandler()
	bus.Subscribe(started, "SyncRunStarted")
	bus.Subscribe(failed, "SyncUnitFailed")
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("SyncRunStarted", 1),
		newTestEvent("SyncUnitFailed", 2),
		newTestEvent("SyncRunFinished", 3),
	))

	assert.Len(t, started.getHandled(), 1)
	assert.Len(t, failed.getHandled(), 1)
	assert.Len(t, all.getHandled(), 3)
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("E")
	failing.err = errors.New("boom")
	panicking := NewFuncHandler(func(context.Context, shared.DomainEvent) error {
		panic("handler exploded")
	}, "E")
	healthy := newTestHandler("E")

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("E", 1)))

	assert.Len(t, healthy.getHandled(), 1)
	assert.Equal(t, 1, logs.FilterMessage("handler failed to process event").Len())
	assert.Equal(t, 1, logs.FilterMessage("handler panicked").Len())
}

func TestInMemoryEventBus_QueuedDeliveryPreservesOrder(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithQueueSize(4))
	handler := newTestHandler("E")
	bus.Subscribe(handler)

	ctx := context.Background()
	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.Running())

	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, bus.Publish(ctx, newTestEvent("E", i)))
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(stopCtx))
	assert.False(t, bus.Running())

	handled := handler.getHandled()
	require.Len(t, handled, n, "Stop must drain the queue")
	for i, e := range handled {
		assert.Equal(t, i, e.(*testEvent).Seq)
	}
}

func TestInMemoryEventBus_StartStopIdempotent(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx := context.Background()
	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Stop(ctx))

	// Back to synchronous delivery after Stop
	handler := newTestHandler("E")
	bus.Subscribe(handler)
	require.NoError(t, bus.Publish(ctx, newTestEvent("E", 1)))
	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("E")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("E", 1)))
	assert.Empty(t, handler.getHandled())
}
