// Package telnetd accepts raw telnet connections and hands each one to the
// session handler on its own goroutine.
//
// The listener speaks the byte-level subset this server understands: no
// option negotiation, just the control bytes the line editor interprets.
package telnetd

import (
	"context"
	"errors"
	"net"
	"sync"

	oi "github.com/reiver/go-oi"
	"go.uber.org/zap"

	"github.com/telnet-console/server/internal/logging"
	"github.com/telnet-console/server/internal/model"
	"github.com/telnet-console/server/internal/session"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":2323"

const refuseMessage = "too many connections, try again later\r\n"

// Server accepts telnet client connections.
type Server struct {
	Addr    string
	Handler *session.Handler
	Log     *logging.Logger

	// MaxClients refuses new connections beyond this many live sessions.
	// Zero means unlimited.
	MaxClients int

	mu sync.Mutex
	ln net.Listener
}

// ListenAndServe listens on Server.Addr and serves until Close is called.
func (s *Server) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after Close.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	defer ln.Close()

	s.Log.Info("telnet server listening", zap.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		if s.MaxClients > 0 && s.Handler.LiveCount() >= s.MaxClients {
			s.refuse(conn)
			continue
		}

		go s.handle(conn)
	}
}

// Close stops the listener. In-flight sessions keep running; forced session
// shutdown is the registry's job.
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.ln
	s.ln = nil
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	return ln.Close()
}

func (s *Server) handle(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error("session panicked", zap.Any("panic", r))
		}
	}()

	// The session registers the handle before its first read and is the
	// sole owner of its release; no defensive close here.
	s.Handler.Serve(context.Background(), conn, conn.RemoteAddr().String(), model.TransportTelnet)
}

func (s *Server) refuse(conn net.Conn) {
	s.Log.Warn("refusing connection",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.Int("max_clients", s.MaxClients),
	)
	if _, err := oi.LongWrite(conn, []byte(refuseMessage)); err != nil {
		s.Log.Debug("refusal message failed", zap.Error(err))
	}
	conn.Close()
}
