// Package eventbus provides topic-based publish/subscribe between
// capabilities that hold no direct references to each other.
package eventbus

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mosaicfw/mosaic/internal/domain/capability"
	"github.com/mosaicfw/mosaic/internal/domain/safety"
)

type subscription struct {
	id      string
	topic   string
	owner   string
	handler func(payload safety.Value)
}

// Bus is the host's event bus provider. Delivery is synchronous on the
// publisher's goroutine, in subscription order, with the payload
// deep-copied per subscriber so no handler can observe another's
// mutations.
type Bus struct {
	mu     sync.Mutex
	topics map[string][]subscription
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{topics: make(map[string][]subscription)}
}

var _ capability.EventBus = (*Bus)(nil)

// Publish delivers a payload to every subscriber of a topic. Handlers
// run outside the bus lock; a handler may subscribe or unsubscribe
// without deadlocking, and such changes take effect on the next publish.
func (b *Bus) Publish(topic string, payload safety.Value) {
	b.mu.Lock()
	subs := make([]subscription, len(b.topics[topic]))
	copy(subs, b.topics[topic])
	b.mu.Unlock()

	for _, sub := range subs {
		sub.handler(safety.DeepCopy(payload))
	}
}

// Subscribe registers a handler for a topic, attributed to an owner for
// bulk removal. Returns the subscription id.
func (b *Bus) Subscribe(topic, owner string, handler func(payload safety.Value)) string {
	if topic == "" || handler == nil {
		return ""
	}

	id := uuid.NewString()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = append(b.topics[topic], subscription{
		id:      id,
		topic:   topic,
		owner:   owner,
		handler: handler,
	})
	return id
}

// Unsubscribe removes one subscription by id. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(id string) {
	if id == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, subs := range b.topics {
		for i, sub := range subs {
			if sub.id == id {
				b.topics[topic] = append(subs[:i], subs[i+1:]...)
				b.prune(topic)
				return
			}
		}
	}
}

// UnsubscribeOwner removes every subscription attributed to an owner.
// Owners with no subscriptions are a no-op.
func (b *Bus) UnsubscribeOwner(owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for topic, subs := range b.topics {
		kept := subs[:0]
		for _, sub := range subs {
			if sub.owner != owner {
				kept = append(kept, sub)
			}
		}
		b.topics[topic] = kept
		b.prune(topic)
	}
}

// SubscriberCount returns the number of live subscriptions on a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// prune drops empty topic buckets. Caller holds the lock.
func (b *Bus) prune(topic string) {
	if len(b.topics[topic]) == 0 {
		delete(b.topics, topic)
	}
}
