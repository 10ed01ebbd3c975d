package remote

import (
	"strings"
	"sync"
)

// FakeSubscriber records subscriptions and delivers messages for tests.
type FakeSubscriber struct {
	mu   sync.Mutex
	subs map[string]func(topic string, payload []byte)

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakeSubscriber creates a FakeSubscriber for testing.
func NewFakeSubscriber() *FakeSubscriber {
	return &FakeSubscriber{subs: make(map[string]func(string, []byte))}
}

// Subscribe records the handler.
func (f *FakeSubscriber) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.mu.Lock()
	f.subs[topic] = handler
	f.mu.Unlock()
	return nil
}

// Topics returns the subscribed topic filters.
func (f *FakeSubscriber) Topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for t := range f.subs {
		out = append(out, t)
	}
	return out
}

// Deliver runs every handler whose filter matches topic. Returns the number
// of handlers run.
func (f *FakeSubscriber) Deliver(topic string, payload []byte) int {
	f.mu.Lock()
	var handlers []func(string, []byte)
	for filter, h := range f.subs {
		if TopicMatches(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(topic, payload)
	}
	return len(handlers)
}

// Close marks the subscriber as closed.
func (f *FakeSubscriber) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake subscriber is "connected".
func (f *FakeSubscriber) IsConnected() bool {
	return f.Connected
}

// TopicMatches reports whether topic matches an MQTT filter with + and #
// wildcards.
func TopicMatches(filter, topic string) bool {
	fl := strings.Split(filter, "/")
	tl := strings.Split(topic, "/")
	for i, f := range fl {
		if f == "#" {
			return true
		}
		if i >= len(tl) {
			return false
		}
		if f != "+" && f != tl[i] {
			return false
		}
	}
	return len(fl) == len(tl)
}
