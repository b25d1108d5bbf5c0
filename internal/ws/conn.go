// Package ws exposes the line console over WebSocket. Each socket is
// wrapped as a plain byte stream and served as an ordinary session; the
// editor neither knows nor cares that frames are involved.
package ws

import (
	"io"

	"github.com/gorilla/websocket"
)

// streamConn adapts a websocket connection to io.ReadWriteCloser. Reads
// drain incoming messages byte by byte; writes go out as single binary
// messages, so echoes reach the client without buffering delays.
type streamConn struct {
	conn *websocket.Conn
	r    io.Reader
}

func newStreamConn(conn *websocket.Conn) *streamConn {
	return &streamConn{conn: conn}
}

func (c *streamConn) Read(p []byte) (int, error) {
	for {
		if c.r == nil {
			_, r, err := c.conn.NextReader()
			if err != nil {
				return 0, err
			}
			c.r = r
		}
		n, err := c.r.Read(p)
		if err == io.EOF {
			// Message exhausted; move on to the next frame.
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *streamConn) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *streamConn) Close() error {
	return c.conn.Close()
}
