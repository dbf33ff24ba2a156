package ws

import "time"

// ConnInfo captures the identity and correlation data of one websocket
// connection, recorded at handshake time for lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
