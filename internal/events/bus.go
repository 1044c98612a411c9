package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Bus fans events out to explicitly registered handlers. Publish returns
// immediately; each handler runs on its own goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	all      []Handler
	inflight sync.WaitGroup
	log      *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[Type][]Handler),
		log:      log,
	}
}

func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.handlers[event.Type])+len(b.all))
	targets = append(targets, b.handlers[event.Type]...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	b.log.Debug("event published",
		zap.String("type", string(event.Type)),
		zap.String("user", event.User.UniqID),
		zap.Int("handlers", len(targets)),
	)

	// Delivery outlives the request that triggered it.
	ctx = context.WithoutCancel(ctx)
	for _, h := range targets {
		b.inflight.Add(1)
		go b.deliver(ctx, h, event)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, event Event) {
	defer b.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("type", string(event.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	h(ctx, event)
}

// Wait blocks until every delivery started so far has returned.
func (b *Bus) Wait() {
	b.inflight.Wait()
}
