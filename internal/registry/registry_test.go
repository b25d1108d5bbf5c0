package registry

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// countingCloser counts how many times Close is called.
type countingCloser struct {
	closed int32
}

func (c *countingCloser) Close() error {
	atomic.AddInt32(&c.closed, 1)
	return nil
}

func (c *countingCloser) closeCount() int32 {
	return atomic.LoadInt32(&c.closed)
}

func TestReleaseClosesOnce(t *testing.T) {
	tr := New()
	c := &countingCloser{}

	tr.Register(c)

	if !tr.Release(c) {
		t.Error("first Release should close the handle")
	}
	if tr.Release(c) {
		t.Error("second Release should be a no-op")
	}
	if got := c.closeCount(); got != 1 {
		t.Errorf("close count = %d, want 1", got)
	}
	if got := tr.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestReleaseUnregistered(t *testing.T) {
	tr := New()
	c := &countingCloser{}

	if tr.Release(c) {
		t.Error("Release of an unregistered handle should be a no-op")
	}
	if got := c.closeCount(); got != 0 {
		t.Errorf("close count = %d, want 0", got)
	}
}

func TestCloseAll(t *testing.T) {
	tr := New()

	var handles []*countingCloser
	for i := 0; i < 5; i++ {
		c := &countingCloser{}
		handles = append(handles, c)
		tr.Register(c)
	}

	if got := tr.CloseAll(); got != 5 {
		t.Errorf("CloseAll() = %d, want 5", got)
	}
	for i, c := range handles {
		if got := c.closeCount(); got != 1 {
			t.Errorf("handle %d close count = %d, want 1", i, got)
		}
	}
	if got := tr.Len(); got != 0 {
		t.Errorf("Len() = %d after CloseAll, want 0", got)
	}

	// A second sweep finds nothing.
	if got := tr.CloseAll(); got != 0 {
		t.Errorf("second CloseAll() = %d, want 0", got)
	}
}

// After N registers and M <= N releases on distinct handles, CloseAll closes
// exactly N-M handles and every handle is closed exactly once overall.
func TestRegisterReleaseCloseAllProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("CloseAll releases exactly the still-registered handles", prop.ForAll(
		func(n, m int) bool {
			if m > n {
				m = n
			}
			tr := New()

			handles := make([]*countingCloser, n)
			for i := range handles {
				handles[i] = &countingCloser{}
				tr.Register(handles[i])
			}
			for i := 0; i < m; i++ {
				if !tr.Release(handles[i]) {
					return false
				}
			}

			if got := tr.CloseAll(); got != n-m {
				return false
			}
			if tr.Len() != 0 {
				return false
			}
			for _, c := range handles {
				if c.closeCount() != 1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 50),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

// Session teardown and shutdown cleanup racing on the same handles must not
// double-close any of them.
func TestConcurrentReleaseAndCloseAll(t *testing.T) {
	tr := New()

	handles := make([]*countingCloser, 100)
	for i := range handles {
		handles[i] = &countingCloser{}
		tr.Register(handles[i])
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, c := range handles {
			tr.Release(c)
		}
	}()
	go func() {
		defer wg.Done()
		tr.CloseAll()
	}()
	wg.Wait()

	for i, c := range handles {
		if got := c.closeCount(); got != 1 {
			t.Errorf("handle %d close count = %d, want exactly 1", i, got)
		}
	}
	if got := tr.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}
