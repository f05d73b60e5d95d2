package events

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"crm_sync_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.happened" }

func newTestBus() *InMemoryBus {
	return NewInMemoryBus(logger.NewWithWriter("production", &bytes.Buffer{}))
}

func TestInMemoryBus_Publish(t *testing.T) {
	bus := newTestBus()
	var calls atomic.Int32
	bus.Subscribe("test.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		calls.Add(1)
		return nil
	}))
	bus.Subscribe("test.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		calls.Add(1)
		return errors.New("ignored")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent()})
	cancel()
	bus.Wait()

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 handler calls, got %d", got)
	}
}

func TestInMemoryBus_PublishSyncJoinsErrors(t *testing.T) {
	bus := newTestBus()
	boom := errors.New("boom")
	bus.Subscribe("test.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		return boom
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: BaseEvent{Timestamp: time.Now()}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestInMemoryBus_NoSubscribers(t *testing.T) {
	bus := newTestBus()
	bus.Publish(context.Background(), testEvent{})
	if err := bus.PublishSync(context.Background(), testEvent{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
