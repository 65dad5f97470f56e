package relay

import (
	"strconv"
	"sync"
	"sync/atomic"
)

var fakeConnSeq atomic.Int64

// fakeConn is an in-memory Conn that records everything sent to it.
type fakeConn struct {
	id string

	mu       sync.Mutex
	open     bool
	deviceID string
	sent     []string
	sendErr  error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		id:   "conn-" + strconv.FormatInt(fakeConnSeq.Add(1), 10),
		open: true,
	}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	if !c.open {
		return ErrConnClosed
	}
	c.sent = append(c.sent, payload)
	return nil
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeConn) DeviceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceID
}

func (c *fakeConn) SetDeviceID(id string) {
	c.mu.Lock()
	c.deviceID = id
	c.mu.Unlock()
}

func (c *fakeConn) close() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

func (c *fakeConn) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}
