// Package recorder writes per-session transcripts in Asciinema v2 format
// (JSON lines: a header object followed by [offset, type, data] events).
// Recordings capture everything the server sent to the client plus every
// committed command line.
package recorder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// header is the Asciinema v2 file header.
type header struct {
	Version   int   `json:"version"`
	Width     int   `json:"width"`
	Height    int   `json:"height"`
	Timestamp int64 `json:"timestamp"`
}

// Default terminal geometry written to the header. Telnet clients never
// report a size here, so a conventional 80x24 is recorded.
const (
	defaultCols = 80
	defaultRows = 24
)

// Recorder appends events to a single session transcript. Safe for
// concurrent use; the session writes output events while commit callbacks
// write input events.
type Recorder struct {
	mu      sync.Mutex
	w       io.Writer
	file    *os.File // set when the recorder owns the file
	started time.Time
}

// Create opens path, writes the v2 header and returns a Recorder owning the
// file.
func Create(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: create transcript: %w", err)
	}
	r := &Recorder{w: f, file: f, started: time.Now()}
	if err := r.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// NewWithWriter returns a Recorder writing to w, including the header. Used
// by tests.
func NewWithWriter(w io.Writer) (*Recorder, error) {
	r := &Recorder{w: w, started: time.Now()}
	if err := r.writeHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) writeHeader() error {
	h := header{
		Version:   2,
		Width:     defaultCols,
		Height:    defaultRows,
		Timestamp: r.started.Unix(),
	}
	line, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("recorder: marshal header: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("recorder: write header: %w", err)
	}
	return nil
}

// Output records bytes sent to the client ("o" event).
func (r *Recorder) Output(data []byte) error {
	return r.event("o", string(data))
}

// Input records a committed command line ("i" event).
func (r *Recorder) Input(line string) error {
	return r.event("i", line)
}

func (r *Recorder) event(kind, data string) error {
	offset := time.Since(r.started).Seconds()
	line, err := json.Marshal([]interface{}{offset, kind, data})
	if err != nil {
		return fmt.Errorf("recorder: marshal event: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("recorder: write event: %w", err)
	}
	return nil
}

// Close closes the transcript file when the recorder owns one.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}
