package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosaicfw/mosaic/internal/domain/safety"
)

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.Subscribe("rules.changed", "a", func(safety.Value) { order = append(order, "first") })
	bus.Subscribe("rules.changed", "b", func(safety.Value) { order = append(order, "second") })

	bus.Publish("rules.changed", safety.Null())

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublishNoSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Publish("nobody.home", safety.String("hello"))
}

func TestPayloadIsolatedPerSubscriber(t *testing.T) {
	bus := NewBus()
	var got []safety.Value
	mutate := func(v safety.Value) {
		v.Map["count"] = safety.Int(999)
		got = append(got, v)
	}
	observe := func(v safety.Value) { got = append(got, v) }
	bus.Subscribe("t", "a", mutate)
	bus.Subscribe("t", "b", observe)

	payload := safety.Map(map[string]safety.Value{"count": safety.Int(1)})
	bus.Publish("t", payload)

	// The second subscriber and the publisher both see the original.
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[1].Map["count"].Int)
	assert.Equal(t, int64(1), payload.Map["count"].Int)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	delivered := 0
	id := bus.Subscribe("t", "a", func(safety.Value) { delivered++ })

	bus.Publish("t", safety.Null())
	bus.Unsubscribe(id)
	bus.Unsubscribe(id)
	bus.Publish("t", safety.Null())

	assert.Equal(t, 1, delivered)
	assert.Zero(t, bus.SubscriberCount("t"))
}

func TestUnsubscribeOwner(t *testing.T) {
	bus := NewBus()
	var delivered []string
	bus.Subscribe("t1", "com.biiz.rules", func(safety.Value) { delivered = append(delivered, "rules-t1") })
	bus.Subscribe("t2", "com.biiz.rules", func(safety.Value) { delivered = append(delivered, "rules-t2") })
	bus.Subscribe("t1", "com.biiz.reports", func(safety.Value) { delivered = append(delivered, "reports-t1") })

	bus.UnsubscribeOwner("com.biiz.rules")
	bus.UnsubscribeOwner("com.biiz.ghost")

	bus.Publish("t1", safety.Null())
	bus.Publish("t2", safety.Null())

	assert.Equal(t, []string{"reports-t1"}, delivered)
}

func TestHandlerMayUnsubscribeItself(t *testing.T) {
	bus := NewBus()
	delivered := 0
	var id string
	id = bus.Subscribe("t", "a", func(safety.Value) {
		delivered++
		bus.Unsubscribe(id)
	})

	bus.Publish("t", safety.Null())
	bus.Publish("t", safety.Null())

	assert.Equal(t, 1, delivered)
}

func TestSubscribeRejectsInvalid(t *testing.T) {
	bus := NewBus()
	assert.Empty(t, bus.Subscribe("", "a", func(safety.Value) {}))
	assert.Empty(t, bus.Subscribe("t", "a", nil))
	assert.Zero(t, bus.SubscriberCount("t"))
}

func TestSubscriptionIDsUnique(t *testing.T) {
	bus := NewBus()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := bus.Subscribe("t", "a", func(safety.Value) {})
		require.NotEmpty(t, id)
		require.False(t, seen[id])
		seen[id] = true
	}
}
