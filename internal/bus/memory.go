package bus

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Publisher for tests: published messages
// are dispatched synchronously to subscribed handlers and recorded per
// kind for inspection.
type MemoryBus struct {
	mu        sync.Mutex
	handlers  map[string][]Handler
	published map[string][]Message
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers:  make(map[string][]Handler),
		published: make(map[string][]Message),
	}
}

func (b *MemoryBus) Subscribe(kind string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], handler)
}

func (b *MemoryBus) Publish(ctx context.Context, msg Message) error {
	b.mu.Lock()
	b.published[msg.Kind] = append(b.published[msg.Kind], msg)
	handlers := append([]Handler(nil), b.handlers[msg.Kind]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// Published returns the messages published on one kind so far.
func (b *MemoryBus) Published(kind string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.published[kind]...)
}
