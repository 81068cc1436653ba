// Package events provides the process-wide publish/subscribe bus that
// carries configuration-change signals between the persisted enabled list,
// its file watcher and the library facade.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/conneroisu/palette/internal/logging"
)

// TopicEnabledChanged is published whenever the persisted list of enabled
// libraries may have changed.
const TopicEnabledChanged = "extlib.enabled.changed"

// Event represents a published event.
type Event struct {
	// Name is the topic, e.g. TopicEnabledChanged
	Name string
	// Source names the publisher, e.g. "facade" or "watcher"
	Source string
	// Data is the topic specific payload
	Data any
}

// EnabledChanged is the payload of TopicEnabledChanged. A nil IDs slice
// means subscribers should re-read the persisted list.
type EnabledChanged struct {
	IDs []string
}

// Handler processes an event.
type Handler func(ctx context.Context, event Event) error

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a simple publish/subscribe event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   uint64
	logger   logging.Logger
}

// NewBus creates a new event bus.
func NewBus(logger logging.Logger) *Bus {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Bus{
		handlers: make(map[string][]subscription),
		logger:   logger.WithComponent("events"),
	}
}

var (
	defaultOnce sync.Once
	defaultBus  *Bus
)

// Default returns the process-wide bus.
func Default() *Bus {
	defaultOnce.Do(func() {
		defaultBus = NewBus(logging.Nop())
	})
	return defaultBus
}

// Subscribe registers handler for topic ("*" receives every topic) and
// returns a function that removes it. Calling the function more than once
// is harmless.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[topic]
		for i, sub := range subs {
			if sub.id == id {
				b.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(b.handlers[topic]) == 0 {
			delete(b.handlers, topic)
		}
	}
}

// Publish calls every handler of the event's topic, then the wildcard
// handlers, synchronously and in subscription order. Handler errors and
// panics are logged and do not stop delivery.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	matched := make([]Handler, 0, len(b.handlers[event.Name])+len(b.handlers["*"]))
	for _, sub := range b.handlers[event.Name] {
		matched = append(matched, sub.handler)
	}
	if event.Name != "*" {
		for _, sub := range b.handlers["*"] {
			matched = append(matched, sub.handler)
		}
	}
	b.mu.RUnlock()

	b.logger.Debug(ctx, "Event published", "event", event.Name, "source", event.Source, "handlers", len(matched))

	for _, handler := range matched {
		if err := b.call(ctx, handler, event); err != nil {
			b.logger.Error(ctx, err, "Event handler failed", "event", event.Name)
		}
	}
}

// PublishEnabledChanged announces a new enabled list.
func (b *Bus) PublishEnabledChanged(ctx context.Context, source string, ids []string) {
	b.Publish(ctx, Event{
		Name:   TopicEnabledChanged,
		Source: source,
		Data:   EnabledChanged{IDs: append([]string(nil), ids...)},
	})
}

// HasSubscribers reports whether any handler would receive topic.
func (b *Bus) HasSubscribers(topic string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.handlers[topic]) > 0 || len(b.handlers["*"]) > 0
}

func (b *Bus) call(ctx context.Context, handler Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, event)
}
