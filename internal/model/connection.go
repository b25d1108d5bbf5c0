package model

import "time"

// ConnectionStatus represents the lifecycle state of a connection record.
type ConnectionStatus string

const (
	ConnectionStatusActive ConnectionStatus = "active"
	ConnectionStatusClosed ConnectionStatus = "closed"
	ConnectionStatusFailed ConnectionStatus = "failed"
)

// Transport identifies which listener a connection arrived on.
type Transport string

const (
	TransportTelnet    Transport = "telnet"
	TransportWebSocket Transport = "websocket"
)

// Connection is the persisted record of one client session. The record is
// created when the session starts and finalized exactly once at teardown,
// whichever way the session ends.
type Connection struct {
	ID             string           `json:"id"`
	RemoteAddr     string           `json:"remoteAddr"`
	Transport      Transport        `json:"transport"`
	Status         ConnectionStatus `json:"status"`
	Commands       int              `json:"commands"`
	TranscriptPath string           `json:"transcriptPath"`
	StartedAt      time.Time        `json:"startedAt"`
	EndedAt        *time.Time       `json:"endedAt,omitempty"`
}

// Duration returns how long the connection has been (or was) alive.
func (c *Connection) Duration() time.Duration {
	if c.EndedAt != nil {
		return c.EndedAt.Sub(c.StartedAt)
	}
	return time.Since(c.StartedAt)
}
