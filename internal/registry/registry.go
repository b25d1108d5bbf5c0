// Package registry tracks the open handles of live sessions so that process
// shutdown can force-close every one of them exactly once, even while
// sessions are tearing themselves down concurrently.
package registry

import (
	"io"
	"sync"
)

// Tracker is the process-wide set of handles pending release. It is handed
// to every connection-handling goroutine explicitly; the lock is held only
// for map operations, never across a close.
type Tracker struct {
	mu   sync.Mutex
	open map[io.Closer]struct{}
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{open: make(map[io.Closer]struct{})}
}

// Register adds a handle to the tracked set. Each live handle is registered
// once, before its session starts reading.
func (t *Tracker) Register(c io.Closer) {
	t.mu.Lock()
	t.open[c] = struct{}{}
	t.mu.Unlock()
}

// Release removes the handle and closes it if it was still tracked. It
// reports whether this call performed the close. Releasing a handle that was
// never registered, or that CloseAll already drained, is a no-op: membership
// check and removal are atomic, so a handle is closed at most once no matter
// how session teardown and shutdown cleanup interleave.
func (t *Tracker) Release(c io.Closer) bool {
	t.mu.Lock()
	_, ok := t.open[c]
	if ok {
		delete(t.open, c)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	c.Close()
	return true
}

// CloseAll atomically drains the tracked set and closes every handle that was
// in it, returning the count. Handles registered after the snapshot belong to
// their own sessions and are untouched. Closes happen outside the lock.
func (t *Tracker) CloseAll() int {
	t.mu.Lock()
	snapshot := make([]io.Closer, 0, len(t.open))
	for c := range t.open {
		snapshot = append(snapshot, c)
	}
	t.open = make(map[io.Closer]struct{})
	t.mu.Unlock()

	for _, c := range snapshot {
		c.Close()
	}
	return len(snapshot)
}

// Len returns the number of currently tracked handles.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}
