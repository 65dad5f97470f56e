package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/robot-relay/internal/infrastructure/config"
	"github.com/nerrad567/robot-relay/internal/infrastructure/logging"
	"github.com/nerrad567/robot-relay/internal/relay"
)

// defaultSendBuffer is used when the configured send buffer is not positive.
const defaultSendBuffer = 64

// closeWriteWait bounds the close frame written during shutdown.
const closeWriteWait = time.Second

// upgrader accepts connections from any origin: robots have no browser
// origin and the relay performs no authentication.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Hub tracks live WebSocket connections so they can be closed on shutdown.
// It also counts running read pumps so shutdown can wait for every close
// path (and its disconnected event) to finish.
type Hub struct {
	logger  *logging.Logger
	clients map[*wsConn]struct{}
	mu      sync.RWMutex
	closing bool
	pumps   sync.WaitGroup
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*wsConn]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub and counts its read pump as running.
// It returns false once the hub has started closing.
func (h *Hub) Register(c *wsConn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.clients[c] = struct{}{}
	h.pumps.Add(1)
	return true
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *wsConn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// pumpDone marks the read pump of a registered client as finished.
func (h *Hub) pumpDone() {
	h.pumps.Done()
}

// Wait blocks until the read pump of every registered client has returned,
// or ctx is done.
func (h *Hub) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.pumps.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll stops accepting clients, sends a going-away close frame to every
// client and closes the sockets. Each read pump then runs the normal close
// path.
func (h *Hub) closeAll() {
	h.mu.Lock()
	h.closing = true
	clients := make([]*wsConn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	if len(clients) > 0 {
		h.logger.Info("disconnecting websocket clients", "clients", len(clients))
	}

	for _, c := range clients {
		c.goAway()
	}
}

// wsConn adapts a gorilla WebSocket to relay.Conn.
//
// Send never blocks: payloads go into a bounded buffer drained by the write
// pump. The mutex orders Send against close so a send that loses the race
// returns relay.ErrConnClosed instead of writing to a closed channel.
type wsConn struct {
	id   string
	ws   *websocket.Conn
	send chan string

	mu       sync.Mutex
	closed   bool
	deviceID string
}

func newWSConn(ws *websocket.Conn, bufferSize int) *wsConn {
	if bufferSize <= 0 {
		bufferSize = defaultSendBuffer
	}
	return &wsConn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan string, bufferSize),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return relay.ErrConnClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return relay.ErrSendBufferFull
	}
}

func (c *wsConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *wsConn) DeviceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceID
}

func (c *wsConn) SetDeviceID(id string) {
	c.mu.Lock()
	c.deviceID = id
	c.mu.Unlock()
}

// goAway sends a going-away close frame and closes the socket.
func (c *wsConn) goAway() {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "relay shutting down")
	//nolint:errcheck // Best-effort close frame; the socket is closed regardless
	c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
	c.ws.Close()
}

// markClosed flags the connection closed and releases the write pump.
// It reports false if the connection was already closed.
func (c *wsConn) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.send)
	return true
}

// handleWebSocket upgrades the request and services the connection until it
// closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		s.logger.Debug("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	c := newWSConn(ws, s.wsCfg.SendBuffer)
	if !s.hub.Register(c) {
		c.goAway()
		return
	}
	s.router.HandleOpen(c, r.RemoteAddr)

	go s.writePump(c)
	go s.readPump(c)
}

// readPump delivers inbound frames to the relay router in arrival order.
// Binary frames are treated as text.
func (s *Server) readPump(c *wsConn) {
	defer func() {
		c.markClosed()
		s.hub.Unregister(c)
		s.router.HandleClose(c)
		c.ws.Close()
		s.hub.pumpDone()
	}()

	if s.wsCfg.MaxMessageSize > 0 {
		c.ws.SetReadLimit(int64(s.wsCfg.MaxMessageSize))
	}
	readWait := keepaliveWindow(s.wsCfg)
	if readWait > 0 {
		//nolint:errcheck // Best-effort deadline on connection setup
		c.ws.SetReadDeadline(time.Now().Add(readWait))
		c.ws.SetPongHandler(func(string) error {
			return c.ws.SetReadDeadline(time.Now().Add(readWait))
		})
	}

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.logger.Warn("websocket read error", "connection_id", c.id, "error", err)
			} else {
				s.logger.Debug("websocket closed", "connection_id", c.id, "error", err)
			}
			return
		}
		if readWait > 0 {
			//nolint:errcheck // Best-effort deadline reset
			c.ws.SetReadDeadline(time.Now().Add(readWait))
		}
		s.router.HandleMessage(c, string(data))
	}
}

// writePump writes queued payloads as text frames and sends keepalive pings.
func (s *Server) writePump(c *wsConn) {
	writeWait := time.Duration(s.wsCfg.WriteTimeout) * time.Second
	if writeWait <= 0 {
		writeWait = 10 * time.Second
	}

	var ping <-chan time.Time
	if s.wsCfg.PingInterval > 0 {
		ticker := time.NewTicker(time.Duration(s.wsCfg.PingInterval) * time.Second)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer c.ws.Close()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				//nolint:errcheck // Best-effort close frame
				c.ws.WriteControl(websocket.CloseMessage, nil, time.Now().Add(closeWriteWait))
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				s.logger.Debug("websocket write failed", "connection_id", c.id, "error", err)
				return
			}
		case <-ping:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// keepaliveWindow is how long a connection may stay silent before the read
// deadline expires. Zero disables the deadline.
func keepaliveWindow(cfg config.WebSocketConfig) time.Duration {
	if cfg.PingInterval <= 0 {
		return 0
	}
	return time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
}
