// Package bus is a bounded broadcast channel for domain events. Each
// subscriber owns an independent cursor into a shared ring buffer; a slow
// subscriber loses the oldest unread events instead of ever blocking the
// publisher. Consumers are told how many events they missed and should treat
// events as hints to re-query authoritative state, not as a complete log.
package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/tradewatch/tradewatch/internal/market"
)

// ErrClosed is returned by Receive once the bus is closed and the
// subscriber's cursor has drained.
var ErrClosed = errors.New("bus closed")

// Bus is a lossy broadcast ring of fixed capacity.
type Bus struct {
	mu       sync.Mutex
	ring     []market.Event
	capacity int
	next     uint64        // sequence of the next published event
	wake     chan struct{} // closed and replaced on every publish/close
	closed   bool
}

// New creates a bus holding at most capacity undelivered events per
// subscriber. Capacity must be at least 1.
func New(capacity int) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{
		ring:     make([]market.Event, capacity),
		capacity: capacity,
		wake:     make(chan struct{}),
	}
}

// Publish appends ev to the ring, overwriting the oldest slot when full.
// It never blocks.
func (b *Bus) Publish(ev market.Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.ring[b.next%uint64(b.capacity)] = ev
	b.next++
	close(b.wake)
	b.wake = make(chan struct{})
	b.mu.Unlock()
}

// Close wakes all blocked subscribers; further publishes are dropped.
// Subscribers still drain whatever the ring holds before seeing ErrClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.wake)
	}
	b.mu.Unlock()
}

// Subscriber is an independent receive handle. It sees every event published
// after its creation, subject to the lossy-overflow policy.
type Subscriber struct {
	bus *Bus
	pos uint64
}

// Subscribe creates a handle positioned at the current head of the stream.
func (b *Bus) Subscribe() *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Subscriber{bus: b, pos: b.next}
}

// Receive blocks until an event is available, the context is cancelled, or
// the bus is closed and drained. missed reports how many events were
// overwritten before this one because the subscriber lagged past the ring
// capacity.
func (s *Subscriber) Receive(ctx context.Context) (ev market.Event, missed uint64, err error) {
	b := s.bus
	for {
		b.mu.Lock()
		if oldest := b.oldestLocked(); s.pos < oldest {
			missed += oldest - s.pos
			s.pos = oldest
		}
		if s.pos < b.next {
			ev = b.ring[s.pos%uint64(b.capacity)]
			s.pos++
			b.mu.Unlock()
			return ev, missed, nil
		}
		if b.closed {
			b.mu.Unlock()
			return nil, missed, ErrClosed
		}
		wake := b.wake
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, missed, ctx.Err()
		case <-wake:
		}
	}
}

// TryReceive is the non-blocking variant; ok is false when nothing is ready.
func (s *Subscriber) TryReceive() (ev market.Event, missed uint64, ok bool) {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if oldest := b.oldestLocked(); s.pos < oldest {
		missed = oldest - s.pos
		s.pos = oldest
	}
	if s.pos < b.next {
		ev = b.ring[s.pos%uint64(b.capacity)]
		s.pos++
		return ev, missed, true
	}
	return nil, missed, false
}

func (b *Bus) oldestLocked() uint64 {
	if b.next > uint64(b.capacity) {
		return b.next - uint64(b.capacity)
	}
	return 0
}
