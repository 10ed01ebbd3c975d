package logic

import "sync"

// EventBus holds one handler per event slot. Registering again replaces the
// previous handler. Broadcast runs the handler in the caller's goroutine.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType]func()
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventType]func())}
}

// Register binds handler to the event, replacing any earlier binding.
// A nil handler clears the slot.
func (b *EventBus) Register(event EventType, handler func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if handler == nil {
		delete(b.handlers, event)
		return
	}
	b.handlers[event] = handler
}

// Broadcast invokes the handler for event synchronously. It is a no-op when
// nothing is registered.
func (b *EventBus) Broadcast(event EventType) {
	b.mu.RLock()
	h := b.handlers[event]
	b.mu.RUnlock()
	if h != nil {
		h()
	}
}

// Broadcaster returns a func that broadcasts event, suitable as a sensor
// callback.
func (b *EventBus) Broadcaster(event EventType) func() {
	return func() { b.Broadcast(event) }
}
