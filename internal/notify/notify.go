// Package notify republishes press notifications from the monitor to any
// number of consumers without ever blocking the publisher.
package notify

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event reports that a press was observed. Seq increases by one per event so
// consumers can detect drops.
type Event struct {
	Seq uint64
	At  time.Time
}

const DefaultBuffer = 16

type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[uint64]*Subscription)}
}

// Subscribe registers a consumer. buffer <= 0 uses DefaultBuffer.
// Subscribing to a closed broker returns a subscription whose channel is
// already closed.
func (b *Broker) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Event, buffer)
	sub := &Subscription{C: ch, ch: ch, broker: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.closed = true
		close(ch)
		return sub
	}
	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	return sub
}

// Publish hands ev to every subscriber. A subscriber whose buffer is full
// misses the event and its Dropped count grows.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription. Later publishes are ignored.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		sub.closed = true
		close(sub.ch)
		delete(b.subs, id)
	}
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	delete(b.subs, sub.id)
	close(sub.ch)
}

type Subscription struct {
	// C receives events until the subscription or the broker is closed.
	C <-chan Event

	ch      chan Event
	broker  *Broker
	id      uint64
	closed  bool // guarded by broker.mu
	dropped atomic.Uint64
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.broker.remove(s)
}

// Dropped counts events lost because C was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}
