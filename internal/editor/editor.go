// Package editor implements the per-connection line-editing state machine.
//
// The editor consumes one raw byte at a time from a telnet client, maintains
// the current edit buffer and per-session history, and writes all echoes,
// redraws and prompts back through a single output writer. It has no
// knowledge of sockets; the session layer owns the read loop and teardown.
package editor

import (
	"errors"
	"fmt"
	"io"
)

// Control bytes recognized in the raw stream.
const (
	byteETX       = 0x03 // Ctrl+C
	byteEOT       = 0x04 // Ctrl+D
	byteBackspace = 0x08
	byteLF        = 0x0A
	byteCR        = 0x0D
	byteESC       = 0x1B
	byteDEL       = 0x7F
)

// eraseSeq wipes the last echoed character on the client terminal.
const eraseSeq = "\b \b"

// clearLineSeq is carriage return plus ANSI erase-to-end-of-line, used as the
// leading part of a history redraw.
const clearLineSeq = "\r\x1b[K"

// Result tells the driving loop what to do after a byte has been handled.
type Result int

const (
	// Continue means the session should read the next byte.
	Continue Result = iota
	// Terminate means the client asked to end the session (Ctrl+C/Ctrl+D).
	Terminate
)

// ErrBufferOverflow is returned when a printable byte arrives while the edit
// buffer is at capacity. The buffer is left unmodified and the session ends.
var ErrBufferOverflow = errors.New("editor: line buffer overflow")

// state is the FSM position between bytes. A closed enum instead of the
// usual function-pointer dispatch so every transition is enumerable.
type state int

const (
	stateNormal state = iota
	stateEscapeSeen
	stateBracketSeen
)

// Config configures a new Editor.
type Config struct {
	// Output receives every byte the editor emits: echoes, erase sequences,
	// redraws and prompts. A short write or write error ends the session.
	Output io.Writer

	// Prompt is sent after each commit and as part of every redraw.
	Prompt string

	// MaxLine caps the edit buffer. Zero selects DefaultMaxLine.
	MaxLine int

	// OnCommit is invoked with each committed non-empty line, after the
	// line has been recorded in history and before the prompt is resent.
	// A non-nil error ends the session.
	OnCommit func(line string) error
}

// DefaultMaxLine is the edit buffer capacity when Config.MaxLine is zero.
const DefaultMaxLine = 256

// Editor is the line-editing FSM for a single session. Not safe for
// concurrent use; it is owned by the session goroutine.
type Editor struct {
	out      io.Writer
	prompt   []byte
	maxLine  int
	onCommit func(string) error

	state state
	buf   []byte
	hist  *History
}

// New creates an Editor. The caller is expected to send the initial prompt
// with WritePrompt before feeding bytes.
func New(cfg Config) *Editor {
	maxLine := cfg.MaxLine
	if maxLine <= 0 {
		maxLine = DefaultMaxLine
	}
	return &Editor{
		out:      cfg.Output,
		prompt:   []byte(cfg.Prompt),
		maxLine:  maxLine,
		onCommit: cfg.OnCommit,
		buf:      make([]byte, 0, maxLine),
		hist:     NewHistory(),
	}
}

// Handle processes one received byte. It returns Terminate when the client
// requested the end of the session, and a non-nil error when the session must
// fail (send failure, buffer overflow, commit error).
func (e *Editor) Handle(b byte) (Result, error) {
	switch e.state {
	case stateEscapeSeen:
		if b == '[' {
			e.state = stateBracketSeen
			return Continue, nil
		}
		// Not an escape sequence after all; handle the byte normally.
		e.state = stateNormal
		return e.handleNormal(b)
	case stateBracketSeen:
		e.state = stateNormal
		switch b {
		case 'A':
			return Continue, e.historyUp()
		case 'B':
			return Continue, e.historyDown()
		case 'C', 'D':
			// Right/Left are decoded but unassigned: no cursor movement
			// within the line.
			return Continue, nil
		default:
			return e.handleNormal(b)
		}
	default:
		return e.handleNormal(b)
	}
}

func (e *Editor) handleNormal(b byte) (Result, error) {
	switch b {
	case byteETX, byteEOT:
		return Terminate, nil

	case byteCR, byteLF:
		if err := e.send([]byte("\r\n")); err != nil {
			return Continue, err
		}
		if len(e.buf) > 0 {
			line := string(e.buf)
			e.hist.Commit(line)
			e.buf = e.buf[:0]
			if e.onCommit != nil {
				if err := e.onCommit(line); err != nil {
					return Continue, err
				}
			}
		}
		return Continue, e.WritePrompt()

	case byteESC:
		e.state = stateEscapeSeen
		return Continue, nil

	case byteBackspace, byteDEL:
		if len(e.buf) > 0 {
			e.buf = e.buf[:len(e.buf)-1]
			return Continue, e.send([]byte(eraseSeq))
		}
		return Continue, nil

	default:
		if !printable(b) {
			return Continue, nil
		}
		if len(e.buf) >= e.maxLine {
			return Continue, ErrBufferOverflow
		}
		e.buf = append(e.buf, b)
		return Continue, e.send([]byte{b})
	}
}

// historyUp replaces the edit buffer with the previous history entry.
func (e *Editor) historyUp() error {
	line, ok := e.hist.Up(string(e.buf))
	if !ok {
		return nil
	}
	e.setLine(line)
	return e.redraw()
}

// historyDown replaces the edit buffer with the next history entry, or the
// saved live line when stepping past the newest one.
func (e *Editor) historyDown() error {
	line, ok := e.hist.Down()
	if !ok {
		return nil
	}
	e.setLine(line)
	return e.redraw()
}

func (e *Editor) setLine(line string) {
	e.buf = e.buf[:0]
	e.buf = append(e.buf, line...)
}

// redraw repaints the input line: carriage return, erase to end of line,
// prompt, then the buffer content. No trailing newline.
func (e *Editor) redraw() error {
	p := make([]byte, 0, len(clearLineSeq)+len(e.prompt)+len(e.buf))
	p = append(p, clearLineSeq...)
	p = append(p, e.prompt...)
	p = append(p, e.buf...)
	return e.send(p)
}

// WritePrompt sends the prompt string to the client.
func (e *Editor) WritePrompt() error {
	return e.send(e.prompt)
}

// Line returns the current edit buffer content.
func (e *Editor) Line() string {
	return string(e.buf)
}

// History exposes the session history, mainly for tests.
func (e *Editor) History() *History {
	return e.hist
}

// send writes p to the output. Short writes are not retried: a partial write
// is a session failure like any other send error.
func (e *Editor) send(p []byte) error {
	n, err := e.out.Write(p)
	if err != nil {
		return fmt.Errorf("editor: send failed: %w", err)
	}
	if n < len(p) {
		return fmt.Errorf("editor: send failed: %w", io.ErrShortWrite)
	}
	return nil
}

// printable reports whether b is a single-byte printable ASCII character.
func printable(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}
