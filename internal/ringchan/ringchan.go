// Package ringchan provides a bounded channel with overwrite-oldest
// semantics, used for the decoded-event feed. A slow consumer never
// blocks the session loop; it just loses the oldest buffered events,
// which the per-event sequence numbers make visible.
package ringchan

import "sync/atomic"

// Ring wraps a buffered channel so producers never block: when the
// buffer is full the oldest element is dropped to make room.
type Ring[T any] struct {
	ch      chan T
	written atomic.Int64
	dropped atomic.Int64
}

// New creates a Ring with the given capacity. Capacity must be positive.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &Ring[T]{ch: make(chan T, capacity)}
}

// C returns the receive side. Consumers range over it until Close.
func (r *Ring[T]) C() <-chan T {
	return r.ch
}

// Send inserts v, discarding the oldest buffered element if the ring is
// full. It reports whether anything was dropped. Send never blocks for
// more than the time it takes the competing consumer to take one value.
func (r *Ring[T]) Send(v T) bool {
	dropped := false
	select {
	case r.ch <- v:
	default:
		// Full; evict the oldest. The consumer may race us for it, in
		// which case the second send succeeds without an eviction.
		select {
		case <-r.ch:
			dropped = true
			r.dropped.Add(1)
		default:
		}
		r.ch <- v
	}
	r.written.Add(1)
	return dropped
}

// TrySend inserts v only if space is available.
func (r *Ring[T]) TrySend(v T) bool {
	select {
	case r.ch <- v:
		r.written.Add(1)
		return true
	default:
		return false
	}
}

// Len returns the number of buffered elements.
func (r *Ring[T]) Len() int {
	return len(r.ch)
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return cap(r.ch)
}

// Close closes the receive channel. Sending after Close panics; the
// owner must stop producers first.
func (r *Ring[T]) Close() {
	close(r.ch)
}

// Stats reports how many elements were written and how many were evicted
// to make room since creation.
func (r *Ring[T]) Stats() (written, dropped int64) {
	return r.written.Load(), r.dropped.Load()
}
