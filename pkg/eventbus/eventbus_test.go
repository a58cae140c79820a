package eventbus

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testEvent struct{ name string }

func (e testEvent) Name() string { return e.name }

func TestPublish_DeliversToSubscribers(t *testing.T) {
	bus := New(zap.NewNop())

	received := make(chan Event, 1)
	bus.Subscribe("test.event", func(ctx context.Context, event Event) error {
		received <- event
		return nil
	})

	bus.Publish(context.Background(), testEvent{name: "test.event"})

	select {
	case event := <-received:
		assert.Equal(t, "test.event", event.Name())
	case <-time.After(time.Second):
		t.Fatal("событие не доставлено")
	}
}

func TestPublish_ListenerErrorDoesNotPropagate(t *testing.T) {
	bus := New(zap.NewNop())

	done := make(chan struct{}, 1)
	bus.Subscribe("test.event", func(ctx context.Context, event Event) error {
		done <- struct{}{}
		return fmt.Errorf("сбой слушателя")
	})

	// Публикация не возвращает ошибку и не паникует.
	bus.Publish(context.Background(), testEvent{name: "test.event"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("слушатель не вызван")
	}
}

func TestPublish_NoSubscribersIsNoop(t *testing.T) {
	bus := New(zap.NewNop())
	bus.Publish(context.Background(), testEvent{name: "nobody.listens"})
}
