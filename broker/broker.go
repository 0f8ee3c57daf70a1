// Package broker routes messages to subscribers addressed by topic and detail.
// The relay uses it as the connection registry: every live connection
// subscribes to ClientSocket with its connection id as the detail.
package broker

import (
	"errors"
	"fmt"
	"relay/broker/channel"
	"relay/broker/subscription"
	"sync"
)

// Topic groups channels by purpose.
type Topic int

const (
	// ClientSocket addresses the outbound queue of a single client connection.
	ClientSocket Topic = iota
)

// Detail distinguishes channels within a topic.
type Detail string

var (
	// ErrQueueFull is returned when at least one subscriber dropped a message.
	ErrQueueFull = errors.New("subscription queue is full")

	// ErrSubscriptionNotFound is returned when unsubscribing an unknown subscription.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

type key struct {
	topic  Topic
	detail Detail
}

// Broker is an in-process publish/subscribe router.
type Broker struct {
	mu        sync.RWMutex
	channels  map[key]*channel.Channel
	queueSize int
}

// New creates a new Broker whose subscriptions buffer queueSize messages.
func New(queueSize int) *Broker {
	return &Broker{
		channels:  make(map[key]*channel.Channel),
		queueSize: queueSize,
	}
}

// Subscribe registers a new subscription for the topic and detail.
func (b *Broker) Subscribe(topic Topic, detail Detail) *subscription.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{topic: topic, detail: detail}
	ch, ok := b.channels[k]
	if !ok {
		ch = channel.New()
		b.channels[k] = ch
	}
	sub := subscription.New(b.queueSize)
	ch.AddSubscription(sub)
	return sub
}

// Unsubscribe removes and closes the subscription. The channel is dropped once
// it has no subscriptions left.
func (b *Broker) Unsubscribe(topic Topic, detail Detail, sub *subscription.Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{topic: topic, detail: detail}
	ch, ok := b.channels[k]
	if !ok || !ch.RemoveSubscription(sub) {
		return fmt.Errorf("%d/%s: %w", topic, detail, ErrSubscriptionNotFound)
	}
	if ch.Len() == 0 {
		delete(b.channels, k)
	}
	return nil
}

// Publish delivers the message to every subscriber of the topic and detail.
// Publishing to a detail without subscribers is a no-op.
func (b *Broker) Publish(topic Topic, detail Detail, message any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ch, ok := b.channels[key{topic: topic, detail: detail}]
	if !ok {
		return nil
	}

	if dropped := ch.SendAll(message); dropped > 0 {
		return fmt.Errorf("%d/%s dropped by %d subscribers: %w", topic, detail, dropped, ErrQueueFull)
	}
	return nil
}

// HasSubscriber reports whether anyone is subscribed to the topic and detail.
func (b *Broker) HasSubscriber(topic Topic, detail Detail) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.channels[key{topic: topic, detail: detail}]
	return ok
}
