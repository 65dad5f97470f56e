package relay

// Conn is a handle to a live bidirectional connection.
//
// The transport creates and owns the connection; the Registry holds a
// non-owning reference while it is registered. Implementations must be
// pointer types so that two handles compare equal only when they refer to
// the same connection.
type Conn interface {
	// ID returns a unique identifier for the connection (not the device id).
	ID() string

	// Send queues payload for delivery to the remote end.
	// It returns ErrConnClosed if the connection has closed.
	Send(payload string) error

	// IsOpen reports whether the transport is still open.
	IsOpen() bool

	// DeviceID returns the identifier recorded at registration, or "".
	DeviceID() string

	// SetDeviceID records the identifier the connection registered under.
	SetDeviceID(id string)
}
