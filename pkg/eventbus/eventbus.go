package eventbus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event представляет собой любое событие в системе.
type Event interface {
	Name() string
}

// Listener — обработчик (слушатель) событий.
type Listener func(ctx context.Context, event Event) error

// Bus — шина событий. Публикация асинхронная и fire-and-forget:
// сбой слушателя логируется и никогда не роняет вызвавшую операцию.
type Bus struct {
	listeners map[string][]Listener
	mu        sync.RWMutex
	logger    *zap.Logger
}

// New создаёт новую шину событий.
func New(logger *zap.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
		logger:    logger,
	}
}

// Subscribe подписывает слушателя на определённое событие.
func (b *Bus) Subscribe(eventName string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventName] = append(b.listeners[eventName], listener)
}

// Publish публикует событие. Все подписчики будут вызваны в отдельных горутинах.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	eventName := event.Name()
	if listeners, ok := b.listeners[eventName]; ok {
		for _, listener := range listeners {
			go func(l Listener) {
				// Таймаут, чтобы не копить "вечные" горутины.
				ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
				defer cancel()

				if err := l(ctxWithTimeout, event); err != nil {
					b.logger.Error("Ошибка в обработчике события",
						zap.String("event", eventName),
						zap.Error(err),
					)
				}
			}(listener)
		}
	}
}
