package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	shared.EventHeader
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{EventHeader: shared.NewEventHeader(eventType, "Test", uuid.New(), uuid.New())}
}

type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	seen   []string
	err    error
	panics bool
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, event.EventType())
	return h.err
}

func (h *recordingHandler) received() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

func TestInMemoryEventBus_DispatchesByType(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	created := &recordingHandler{types: []string{"Created"}}
	all := &recordingHandler{}
	bus.Subscribe(created)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(t.Context(), newTestEvent("Created"), newTestEvent("Deleted")))

	assert.Equal(t, []string{"Created"}, created.received())
	assert.Equal(t, []string{"Created", "Deleted"}, all.received())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{types: []string{"Created"}}
	bus.Subscribe(h, "Deleted")

	require.NoError(t, bus.Publish(t.Context(), newTestEvent("Created"), newTestEvent("Deleted")))

	assert.Equal(t, []string{"Deleted"}, h.received())
}

func TestInMemoryEventBus_HandlerFailureDoesNotStopDispatch(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	failing := &recordingHandler{types: []string{"Created"}, err: errors.New("handler down")}
	panicking := &recordingHandler{types: []string{"Created"}, panics: true}
	healthy := &recordingHandler{types: []string{"Created"}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(t.Context(), newTestEvent("Created"))

	require.NoError(t, err)
	assert.Equal(t, []string{"Created"}, failing.received())
	assert.Equal(t, []string{"Created"}, healthy.received())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{types: []string{"Created"}}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(t.Context(), newTestEvent("Created")))

	assert.Empty(t, h.received())
}

func TestInMemoryEventBus_StopRejectsPublish(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{}
	bus.Subscribe(h)
	require.NoError(t, bus.Start(t.Context()))
	require.NoError(t, bus.Stop(t.Context()))

	err := bus.Publish(t.Context(), newTestEvent("Created"))

	assert.ErrorIs(t, err, ErrBusStopped)
	assert.Empty(t, h.received())

	require.NoError(t, bus.Start(t.Context()))
	assert.NoError(t, bus.Publish(t.Context(), newTestEvent("Created")))
	assert.Len(t, h.received(), 1)
}

func TestInMemoryEventBus_ConcurrentPublish(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{}
	bus.Subscribe(h)

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			_ = bus.Publish(context.Background(), newTestEvent("Created"))
		})
	}
	wg.Wait()

	assert.Len(t, h.received(), 20)
}
