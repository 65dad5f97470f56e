package relay

import (
	"sort"
	"sync"
	"time"
)

// DeviceInfo is a point-in-time view of a registry entry.
type DeviceInfo struct {
	DeviceID     string    `json:"device_id"`
	ConnectionID string    `json:"connection_id"`
	Open         bool      `json:"open"`
	RegisteredAt time.Time `json:"registered_at"`
}

// entry is a single registration.
type entry struct {
	conn         Conn
	registeredAt time.Time
}

// Registry maps device identifiers to the connection currently registered
// under them.
//
// At most one connection is held per identifier; registering again replaces
// the previous entry without closing the old connection. The registry never
// checks whether a stored connection is still open: callers check IsOpen
// at forward time.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
		logger:  NopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register maps id to conn and records id on the connection.
//
// It returns the connection that previously held id, or nil. If conn was
// registered under a different identifier, that entry is released first so
// a connection never holds more than one identifier. An empty id is ignored.
func (r *Registry) Register(id string, conn Conn) Conn {
	if id == "" || conn == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prevID := conn.DeviceID(); prevID != "" && prevID != id {
		if e, ok := r.entries[prevID]; ok && e.conn == conn {
			delete(r.entries, prevID)
			r.logger.Debug("connection released previous device id",
				"device_id", prevID,
				"connection_id", conn.ID(),
			)
		}
	}

	var previous Conn
	if e, ok := r.entries[id]; ok && e.conn != conn {
		previous = e.conn
	}

	r.entries[id] = entry{conn: conn, registeredAt: time.Now().UTC()}
	conn.SetDeviceID(id)

	return previous
}

// Lookup returns the connection registered under id.
// It does not check whether the connection is still open.
func (r *Registry) Lookup(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// UnregisterConn removes the entry for conn's device id, but only if the
// entry still refers to conn itself. It reports whether an entry was removed.
//
// A connection superseded by a later registration under the same id leaves
// the newer registration in place.
func (r *Registry) UnregisterConn(conn Conn) bool {
	if conn == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := conn.DeviceID()
	if id == "" {
		return false
	}

	e, ok := r.entries[id]
	if !ok || e.conn != conn {
		return false
	}

	delete(r.entries, id)
	return true
}

// Len returns the number of registered identifiers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Devices returns a snapshot of all registrations sorted by device id.
func (r *Registry) Devices() []DeviceInfo {
	r.mu.RLock()
	devices := make([]DeviceInfo, 0, len(r.entries))
	for id, e := range r.entries {
		devices = append(devices, DeviceInfo{
			DeviceID:     id,
			ConnectionID: e.conn.ID(),
			Open:         e.conn.IsOpen(),
			RegisteredAt: e.registeredAt,
		})
	}
	r.mu.RUnlock()

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].DeviceID < devices[j].DeviceID
	})
	return devices
}

// Device returns the registration for id.
func (r *Registry) Device(id string) (DeviceInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return DeviceInfo{}, false
	}
	return DeviceInfo{
		DeviceID:     id,
		ConnectionID: e.conn.ID(),
		Open:         e.conn.IsOpen(),
		RegisteredAt: e.registeredAt,
	}, true
}
