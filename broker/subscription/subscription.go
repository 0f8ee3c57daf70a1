// Package subscription provides a buffered, ordered message queue for a single subscriber.
package subscription

import "sync"

// DefaultQueueSize is the number of messages a subscription buffers before it drops.
const DefaultQueueSize = 256

// Subscription is a queue of messages published to one subscriber.
type Subscription struct {
	mu     sync.RWMutex
	closed bool
	queue  chan any
}

// New creates a new Subscription with the given queue size.
func New(size int) *Subscription {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Subscription{
		queue: make(chan any, size),
	}
}

// Send enqueues the message without blocking. It returns false when the
// subscription is closed or its queue is full.
func (s *Subscription) Send(message any) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	select {
	case s.queue <- message:
		return true
	default:
		return false
	}
}

// Receive returns the channel that delivers queued messages. The channel is
// closed after Close.
func (s *Subscription) Receive() <-chan any {
	return s.queue
}

// Close closes the subscription. Calling Close more than once is a no-op.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.queue)
}
