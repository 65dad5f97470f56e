package relay

import "errors"

// Sentinel errors for relay operations.
//
// Connection implementations return these from Send so the router can
// classify a failed forward:
//
//	if errors.Is(err, relay.ErrConnClosed) {
//	    // target went away between lookup and send
//	}
var (
	// ErrConnClosed is returned when sending on a connection that has closed.
	ErrConnClosed = errors.New("relay: connection closed")

	// ErrSendBufferFull is returned when a connection's outbound buffer is full.
	ErrSendBufferFull = errors.New("relay: send buffer full")

	// ErrNotConnected is reported by Result.Err when a dispatched action
	// did not reach an open connection.
	ErrNotConnected = errors.New("relay: device not connected")
)
