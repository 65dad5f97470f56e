package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/robot-relay/internal/relay"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	Relay         RelayMetrics     `json:"relay"`
	MQTT          BackendMetrics   `json:"mqtt"`
	InfluxDB      BackendMetrics   `json:"influxdb"`
	Database      *DatabaseMetrics `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// RelayMetrics contains router counters and registry size.
type RelayMetrics struct {
	relay.Stats
	Devices          int    `json:"devices"`
	WebSocketClients int    `json:"websocket_clients"`
	EventsDropped    uint64 `json:"events_dropped"`
}

// BackendMetrics reports an optional external connection.
type BackendMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns runtime, relay and backend statistics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Relay: RelayMetrics{
			Stats:            s.router.Stats(),
			Devices:          s.registry.Len(),
			WebSocketClients: s.hub.ClientCount(),
		},
	}

	if s.events != nil {
		metrics.Relay.EventsDropped = s.events.Dropped()
	}
	if s.mqtt != nil {
		metrics.MQTT = BackendMetrics{Enabled: true, Connected: s.mqtt.IsConnected()}
	}
	if s.influx != nil {
		metrics.InfluxDB = BackendMetrics{Enabled: true, Connected: s.influx.IsConnected()}
	}
	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
