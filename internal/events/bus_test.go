package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/palette/internal/logging"
)

func TestBus_PublishAndUnsubscribe(t *testing.T) {
	bus := NewBus(logging.Nop())
	var got []string

	unsubscribe := bus.Subscribe(TopicEnabledChanged, func(_ context.Context, e Event) error {
		payload, ok := e.Data.(EnabledChanged)
		require.True(t, ok)
		got = append(got, payload.IDs...)
		return nil
	})
	assert.True(t, bus.HasSubscribers(TopicEnabledChanged))

	bus.PublishEnabledChanged(context.Background(), "test", []string{"mui", "antd"})
	assert.Equal(t, []string{"mui", "antd"}, got)

	unsubscribe()
	unsubscribe()
	bus.PublishEnabledChanged(context.Background(), "test", []string{"other"})
	assert.Equal(t, []string{"mui", "antd"}, got)
	assert.False(t, bus.HasSubscribers(TopicEnabledChanged))
}

func TestBus_DeliveryOrderAndWildcard(t *testing.T) {
	bus := NewBus(nil)
	var order []string

	bus.Subscribe("*", func(context.Context, Event) error {
		order = append(order, "wildcard")
		return nil
	})
	bus.Subscribe("topic", func(context.Context, Event) error {
		order = append(order, "first")
		return errors.New("ignored")
	})
	bus.Subscribe("topic", func(context.Context, Event) error {
		panic("recovered")
	})
	bus.Subscribe("topic", func(context.Context, Event) error {
		order = append(order, "third")
		return nil
	})

	bus.Publish(context.Background(), Event{Name: "topic"})

	assert.Equal(t, []string{"first", "third", "wildcard"}, order)
}

func TestBus_UnsubscribeKeepsOthers(t *testing.T) {
	bus := NewBus(nil)
	calls := map[string]int{}

	first := bus.Subscribe("topic", func(context.Context, Event) error { calls["first"]++; return nil })
	bus.Subscribe("topic", func(context.Context, Event) error { calls["second"]++; return nil })

	first()
	bus.Publish(context.Background(), Event{Name: "topic"})

	assert.Equal(t, map[string]int{"second": 1}, calls)
}

func TestBus_HandlerMaySubscribe(t *testing.T) {
	bus := NewBus(nil)
	bus.Subscribe("topic", func(context.Context, Event) error {
		bus.Subscribe("other", func(context.Context, Event) error { return nil })
		return nil
	})

	assert.NotPanics(t, func() { bus.Publish(context.Background(), Event{Name: "topic"}) })
	assert.True(t, bus.HasSubscribers("other"))
}

func TestDefault(t *testing.T) {
	assert.Same(t, Default(), Default())
}
