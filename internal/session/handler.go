// Package session drives one client connection from accept to teardown.
//
// A session owns its connection handle, edit buffer, history and transcript.
// Every exit path (client-requested termination, editor failure, read error,
// forced close during shutdown) funnels into the same teardown sequence:
// release the handle through the registry, finalize the connection record
// and close the transcript.
package session

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	oi "github.com/reiver/go-oi"
	"go.uber.org/zap"

	"github.com/telnet-console/server/internal/buffer"
	"github.com/telnet-console/server/internal/command"
	"github.com/telnet-console/server/internal/editor"
	"github.com/telnet-console/server/internal/logging"
	"github.com/telnet-console/server/internal/model"
	"github.com/telnet-console/server/internal/recorder"
	"github.com/telnet-console/server/internal/registry"
	"github.com/telnet-console/server/internal/repository"
)

// Config holds configuration for the session handler.
type Config struct {
	LogDir    string
	Prompt    string
	MaxLine   int
	CacheSize int
}

// DefaultPrompt is sent on connect and after each commit.
const DefaultPrompt = "> "

// defaultCacheSize bounds the per-session output cache.
const defaultCacheSize = 4096

// Handler serves sessions over any byte-stream transport. One Handler is
// shared by the telnet and websocket listeners.
type Handler struct {
	registry *registry.Tracker
	repo     *repository.ConnectionRepository
	commands *command.Table
	log      *logging.Logger

	logDir    string
	prompt    string
	maxLine   int
	cacheSize int

	mu   sync.RWMutex
	live map[string]*liveSession
}

// liveSession is the in-memory view of a running session, kept for the
// admin API.
type liveSession struct {
	conn  *model.Connection
	cache *buffer.Ring
}

// NewHandler creates a session Handler.
func NewHandler(reg *registry.Tracker, repo *repository.ConnectionRepository, commands *command.Table, log *logging.Logger, cfg Config) *Handler {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	return &Handler{
		registry:  reg,
		repo:      repo,
		commands:  commands,
		log:       log,
		logDir:    cfg.LogDir,
		prompt:    cfg.Prompt,
		maxLine:   cfg.MaxLine,
		cacheSize: cfg.CacheSize,
		live:      make(map[string]*liveSession),
	}
}

// Serve runs one session to completion. The handle is registered before the
// first read and released exactly once, whichever way the session ends.
func (h *Handler) Serve(ctx context.Context, conn io.ReadWriteCloser, remoteAddr string, transport model.Transport) {
	id := uuid.New().String()
	log := h.log.With(
		zap.String("session_id", id),
		zap.String("remote_addr", remoteAddr),
		zap.String("transport", string(transport)),
	)

	h.registry.Register(conn)
	defer h.registry.Release(conn)

	record := &model.Connection{
		ID:         id,
		RemoteAddr: remoteAddr,
		Transport:  transport,
		Status:     model.ConnectionStatusActive,
		StartedAt:  time.Now(),
	}

	var rec *recorder.Recorder
	if h.logDir != "" {
		record.TranscriptPath = filepath.Join(h.logDir, id+".cast")
		var err error
		rec, err = recorder.Create(record.TranscriptPath)
		if err != nil {
			// A missing transcript is not worth refusing the client over.
			log.Warn("transcript disabled", zap.Error(err))
			rec = nil
			record.TranscriptPath = ""
		} else {
			defer rec.Close()
		}
	}

	if err := h.repo.Create(ctx, record); err != nil {
		log.Error("failed to persist connection record", zap.Error(err))
	}

	cache := buffer.NewRing(h.cacheSize)
	h.trackLive(id, record, cache)
	defer h.untrackLive(id)

	out := &sessionWriter{client: conn, cache: cache, rec: rec}

	commands := 0
	ed := editor.New(editor.Config{
		Output:  out,
		Prompt:  h.prompt,
		MaxLine: h.maxLine,
		OnCommit: func(line string) error {
			commands++
			if rec != nil {
				if err := rec.Input(line); err != nil {
					log.Warn("transcript input event failed", zap.Error(err))
				}
			}
			_, err := oi.LongWrite(out, h.commands.Respond(line))
			return err
		},
	})

	log.Info("session started")

	status := model.ConnectionStatusClosed
	if err := ed.WritePrompt(); err != nil {
		log.Warn("session failed", zap.Error(err))
		status = model.ConnectionStatusFailed
	} else {
		status = h.readLoop(conn, ed, log)
	}

	h.finish(id, status, commands, log)
	log.Info("session ended",
		zap.String("status", string(status)),
		zap.Int("commands", commands),
	)
}

// readLoop feeds the editor one byte at a time until the client terminates,
// the stream ends, or the editor fails. A read error covers both a client
// disconnect and a forced close during shutdown; both are ordinary ends of
// input.
func (h *Handler) readLoop(r io.Reader, ed *editor.Editor, log *zap.Logger) model.ConnectionStatus {
	var p [1]byte
	for {
		n, err := r.Read(p[:])
		if n < 1 {
			if err != nil {
				return model.ConnectionStatusClosed
			}
			continue
		}

		res, err := ed.Handle(p[0])
		if err != nil {
			log.Warn("session failed", zap.Error(err))
			return model.ConnectionStatusFailed
		}
		if res == editor.Terminate {
			return model.ConnectionStatusClosed
		}
	}
}

// finish finalizes the connection record. Uses a fresh context: teardown
// bookkeeping must run even when the serve context is gone.
func (h *Handler) finish(id string, status model.ConnectionStatus, commands int, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.repo.Finish(ctx, id, status, commands, time.Now()); err != nil {
		log.Error("failed to finalize connection record", zap.Error(err))
	}
}

func (h *Handler) trackLive(id string, conn *model.Connection, cache *buffer.Ring) {
	h.mu.Lock()
	h.live[id] = &liveSession{conn: conn, cache: cache}
	h.mu.Unlock()
}

func (h *Handler) untrackLive(id string) {
	h.mu.Lock()
	delete(h.live, id)
	h.mu.Unlock()
}

// LiveCount returns the number of sessions currently being served.
func (h *Handler) LiveCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.live)
}

// Peek returns the most recent output bytes of a live session.
func (h *Handler) Peek(id string) ([]byte, bool) {
	h.mu.RLock()
	ls, ok := h.live[id]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return ls.cache.Bytes(), true
}

// sessionWriter sends to the client and mirrors whatever was actually sent
// into the output cache and the transcript. Only the client write can fail
// the session.
type sessionWriter struct {
	client io.Writer
	cache  *buffer.Ring
	rec    *recorder.Recorder
}

func (w *sessionWriter) Write(p []byte) (int, error) {
	n, err := w.client.Write(p)
	if n > 0 {
		w.cache.Write(p[:n])
		if w.rec != nil {
			if recErr := w.rec.Output(p[:n]); recErr != nil {
				// Transcript loss must not turn into a send failure.
				w.rec = nil
			}
		}
	}
	return n, err
}
