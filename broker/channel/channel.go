// Package channel provides the implementation of message channels.
package channel

import (
	"relay/broker/subscription"
	"sync"
)

// Channel represents a message channel that can have multiple subscribers.
type Channel struct {
	mu   sync.RWMutex
	subs []*subscription.Subscription
}

// New creates and initializes a new Channel instance.
func New() *Channel {
	return &Channel{
		subs: make([]*subscription.Subscription, 0),
	}
}

// SendAll sends a message to every subscription in subscription order and
// returns the number of subscriptions that dropped it.
func (c *Channel) SendAll(message any) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dropped := 0
	for _, sub := range c.subs {
		if !sub.Send(message) {
			dropped++
		}
	}
	return dropped
}

// AddSubscription adds a new Subscription Channel.
func (c *Channel) AddSubscription(sub *subscription.Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subs = append(c.subs, sub)
}

// RemoveSubscription removes a Subscription Channel and closes it. It reports
// whether the subscription was found.
func (c *Channel) RemoveSubscription(sub *subscription.Subscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			sub.Close()
			return true
		}
	}
	return false
}

// Len returns the number of subscriptions.
func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.subs)
}
