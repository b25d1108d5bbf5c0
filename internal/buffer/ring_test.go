package buffer

import (
	"bytes"
	"sync"
	"testing"
)

func TestRingWrite(t *testing.T) {
	t.Run("keeps everything under capacity", func(t *testing.T) {
		r := NewRing(10)
		r.Write([]byte("abc"))
		r.Write([]byte("def"))

		if got := r.Bytes(); !bytes.Equal(got, []byte("abcdef")) {
			t.Errorf("Bytes() = %q, want %q", got, "abcdef")
		}
	})

	t.Run("drops oldest bytes at capacity", func(t *testing.T) {
		r := NewRing(4)
		r.Write([]byte("abc"))
		r.Write([]byte("de"))

		if got := r.Bytes(); !bytes.Equal(got, []byte("bcde")) {
			t.Errorf("Bytes() = %q, want %q", got, "bcde")
		}
	})

	t.Run("oversized write keeps the tail", func(t *testing.T) {
		r := NewRing(4)
		r.Write([]byte("abcdefgh"))

		if got := r.Bytes(); !bytes.Equal(got, []byte("efgh")) {
			t.Errorf("Bytes() = %q, want %q", got, "efgh")
		}
	})

	t.Run("empty ring returns nil", func(t *testing.T) {
		r := NewRing(4)
		if got := r.Bytes(); got != nil {
			t.Errorf("Bytes() = %v, want nil", got)
		}
	})

	t.Run("tiny capacity is clamped", func(t *testing.T) {
		r := NewRing(0)
		r.Write([]byte("xy"))
		if got := r.Bytes(); !bytes.Equal(got, []byte("y")) {
			t.Errorf("Bytes() = %q, want %q", got, "y")
		}
	})
}

func TestRingConcurrentWrites(t *testing.T) {
	r := NewRing(64)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Write([]byte("0123456789"))
				r.Bytes()
			}
		}()
	}
	wg.Wait()

	if got := r.Len(); got != 64 {
		t.Errorf("Len() = %d, want full capacity 64", got)
	}
}
