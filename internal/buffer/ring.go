// Package buffer provides a bounded cache of recent session output.
package buffer

import "sync"

// Ring keeps the most recent bytes written to it, up to a fixed capacity.
// Older bytes are dropped as new ones arrive. The admin API reads it to show
// what a live session last sent to its client.
//
// Writes never fail, so it is safe to tee session output into a Ring without
// affecting the session's own send-failure semantics.
type Ring struct {
	mu       sync.RWMutex
	data     []byte
	capacity int
}

// NewRing creates a Ring with the given capacity. Capacities below one are
// clamped to one.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{
		data:     make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Write appends p, discarding the oldest bytes once capacity is exceeded.
// It implements io.Writer and never returns an error.
func (r *Ring) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(p) >= r.capacity {
		r.data = r.data[:r.capacity]
		copy(r.data, p[len(p)-r.capacity:])
		return len(p), nil
	}

	if overflow := len(r.data) + len(p) - r.capacity; overflow > 0 {
		r.data = r.data[:copy(r.data, r.data[overflow:])]
	}
	r.data = append(r.data, p...)
	return len(p), nil
}

// Bytes returns a copy of the cached bytes, oldest first.
func (r *Ring) Bytes() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.data) == 0 {
		return nil
	}
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

// Len returns the number of cached bytes.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Cap returns the capacity.
func (r *Ring) Cap() int {
	return r.capacity
}
