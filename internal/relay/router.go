package relay

import (
	"sync/atomic"
	"time"
)

// Result is the outcome of handling one inbound message.
type Result int

// Handling outcomes.
const (
	// ResultIgnored means the message was malformed and silently dropped.
	ResultIgnored Result = iota
	// ResultRegistered means the sender was registered under a device id.
	ResultRegistered
	// ResultForwarded means the action was handed to the target connection.
	ResultForwarded
	// ResultNotConnected means no open connection is registered for the target.
	ResultNotConnected
	// ResultSendFailed means the target was found but the send failed.
	ResultSendFailed
	// ResultUnhandled means the message kind was not recognised.
	ResultUnhandled
)

// String returns a lowercase name for the result.
func (r Result) String() string {
	switch r {
	case ResultIgnored:
		return "ignored"
	case ResultRegistered:
		return "registered"
	case ResultForwarded:
		return "forwarded"
	case ResultNotConnected:
		return "not_connected"
	case ResultSendFailed:
		return "send_failed"
	case ResultUnhandled:
		return "unhandled"
	default:
		return "unknown"
	}
}

// Err returns ErrNotConnected when r means the action was not delivered to
// its target, and nil otherwise. A failed send counts as not connected.
func (r Result) Err() error {
	switch r {
	case ResultNotConnected, ResultSendFailed:
		return ErrNotConnected
	default:
		return nil
	}
}

// Stats is a snapshot of router counters.
type Stats struct {
	MessagesReceived uint64 `json:"messages_received"`
	Registrations    uint64 `json:"registrations"`
	Forwarded        uint64 `json:"forwarded"`
	NotConnected     uint64 `json:"not_connected"`
	SendFailures     uint64 `json:"send_failures"`
	Ignored          uint64 `json:"ignored"`
	Unhandled        uint64 `json:"unhandled"`
	Connections      int64  `json:"connections"`
}

// counters holds the live router statistics.
type counters struct {
	received      atomic.Uint64
	registrations atomic.Uint64
	forwarded     atomic.Uint64
	notConnected  atomic.Uint64
	sendFailures  atomic.Uint64
	ignored       atomic.Uint64
	unhandled     atomic.Uint64
	connections   atomic.Int64
}

// Router classifies inbound messages and dispatches them against a Registry.
//
// It keeps no per-message state: each call is a single best-effort step with
// no retries. The Router is driven by the transport, which must deliver the
// messages and close event of any one connection sequentially.
type Router struct {
	registry *Registry
	logger   Logger
	events   *EventBus
	stats    counters
}

// NewRouter creates a router dispatching against registry.
func NewRouter(registry *Registry) *Router {
	return &Router{
		registry: registry,
		logger:   NopLogger{},
	}
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
}

// SetEventBus sets the bus that receives relay events. Nil disables events.
func (r *Router) SetEventBus(bus *EventBus) {
	r.events = bus
}

// Registry returns the registry the router dispatches against.
func (r *Router) Registry() *Registry {
	return r.registry
}

// HandleOpen records a newly accepted connection.
func (r *Router) HandleOpen(conn Conn, remoteAddr string) {
	r.stats.connections.Add(1)
	r.logger.Info("client connected",
		"connection_id", conn.ID(),
		"remote_addr", remoteAddr,
	)
	r.emit(Event{
		Kind:         EventConnected,
		ConnectionID: conn.ID(),
		RemoteAddr:   remoteAddr,
	})
}

// HandleMessage parses raw and acts on it on behalf of conn.
func (r *Router) HandleMessage(conn Conn, raw string) Result {
	r.stats.received.Add(1)
	r.logger.Debug("message received", "connection_id", conn.ID(), "message", raw)

	switch msg := Parse(raw).(type) {
	case Registration:
		return r.register(conn, msg)
	case Command:
		return r.Dispatch(msg.Target, msg.Action)
	case Unrecognized:
		return r.unrecognized(conn, msg)
	default:
		r.stats.ignored.Add(1)
		return ResultIgnored
	}
}

// Dispatch forwards action verbatim to the open connection registered under
// target. A missing or closed target, or a failed send, drops the action.
func (r *Router) Dispatch(target, action string) Result {
	conn, ok := r.registry.Lookup(target)
	if !ok || !conn.IsOpen() {
		r.stats.notConnected.Add(1)
		r.logger.Warn("robot not connected", "device_id", target)
		r.emit(Event{Kind: EventNotConnected, DeviceID: target, Action: action})
		return ResultNotConnected
	}

	if err := conn.Send(action); err != nil {
		r.stats.sendFailures.Add(1)
		r.logger.Warn("forward failed, robot not connected",
			"device_id", target,
			"connection_id", conn.ID(),
			"error", err,
		)
		r.emit(Event{
			Kind:         EventSendFailed,
			ConnectionID: conn.ID(),
			DeviceID:     target,
			Action:       action,
			Message:      err.Error(),
		})
		return ResultSendFailed
	}

	r.stats.forwarded.Add(1)
	r.logger.Info("command forwarded", "device_id", target, "action", action)
	r.emit(Event{
		Kind:         EventForwarded,
		ConnectionID: conn.ID(),
		DeviceID:     target,
		Action:       action,
	})
	return ResultForwarded
}

// HandleClose unregisters conn if it still owns its device id.
func (r *Router) HandleClose(conn Conn) {
	r.stats.connections.Add(-1)

	deviceID := conn.DeviceID()
	if deviceID == "" {
		r.logger.Info("client disconnected", "connection_id", conn.ID())
		r.emit(Event{Kind: EventDisconnected, ConnectionID: conn.ID()})
		return
	}

	removed := r.registry.UnregisterConn(conn)
	r.logger.Info("robot disconnected",
		"device_id", deviceID,
		"connection_id", conn.ID(),
		"unregistered", removed,
	)
	r.emit(Event{
		Kind:         EventDisconnected,
		ConnectionID: conn.ID(),
		DeviceID:     deviceID,
	})
}

// Stats returns a snapshot of the router counters.
func (r *Router) Stats() Stats {
	return Stats{
		MessagesReceived: r.stats.received.Load(),
		Registrations:    r.stats.registrations.Load(),
		Forwarded:        r.stats.forwarded.Load(),
		NotConnected:     r.stats.notConnected.Load(),
		SendFailures:     r.stats.sendFailures.Load(),
		Ignored:          r.stats.ignored.Load(),
		Unhandled:        r.stats.unhandled.Load(),
		Connections:      r.stats.connections.Load(),
	}
}

func (r *Router) register(conn Conn, msg Registration) Result {
	previous := r.registry.Register(msg.DeviceID, conn)
	r.stats.registrations.Add(1)

	if previous != nil {
		r.logger.Warn("device id taken over by new connection",
			"device_id", msg.DeviceID,
			"previous_connection_id", previous.ID(),
			"connection_id", conn.ID(),
		)
		r.emit(Event{
			Kind:         EventSuperseded,
			ConnectionID: previous.ID(),
			DeviceID:     msg.DeviceID,
		})
	}

	r.logger.Info("robot registered",
		"device_id", msg.DeviceID,
		"connection_id", conn.ID(),
	)
	r.emit(Event{
		Kind:         EventRegistered,
		ConnectionID: conn.ID(),
		DeviceID:     msg.DeviceID,
	})
	return ResultRegistered
}

func (r *Router) unrecognized(conn Conn, msg Unrecognized) Result {
	if msg.Malformed {
		r.stats.ignored.Add(1)
		r.logger.Debug("malformed message ignored",
			"connection_id", conn.ID(),
			"message", msg.Raw,
		)
		return ResultIgnored
	}

	r.stats.unhandled.Add(1)

	// Messages from a registered device are observed but never routed.
	if deviceID := conn.DeviceID(); deviceID != "" {
		r.logger.Info("uplink message", "device_id", deviceID, "message", msg.Raw)
		r.emit(Event{
			Kind:         EventUplink,
			ConnectionID: conn.ID(),
			DeviceID:     deviceID,
			Message:      msg.Raw,
		})
		return ResultUnhandled
	}

	r.logger.Info("unhandled message", "connection_id", conn.ID(), "message", msg.Raw)
	r.emit(Event{
		Kind:         EventUnhandled,
		ConnectionID: conn.ID(),
		Message:      msg.Raw,
	})
	return ResultUnhandled
}

func (r *Router) emit(ev Event) {
	if r.events == nil {
		return
	}
	ev.Time = time.Now().UTC()
	r.events.Publish(ev)
}
