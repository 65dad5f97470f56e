package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/robot-relay/internal/relay"
)

// Measurement names.
const (
	MeasurementRelayEvents = "relay_events"
	MeasurementRelayStats  = "relay_stats"
)

// WriteRelayEvent queues one point for ev. Non-blocking.
func (c *Client) WriteRelayEvent(ev relay.Event) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(eventPoint(ev))
}

// Observe implements relay.Observer.
func (c *Client) Observe(ev relay.Event) {
	c.WriteRelayEvent(ev)
}

// WriteStats queues a snapshot of the router counters.
func (c *Client) WriteStats(stats relay.Stats, devices int) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(statsPoint(stats, devices, time.Now()))
}

// eventPoint tags by kind and device so dashboards can group on either;
// the action travels as a field to keep tag cardinality bounded.
func eventPoint(ev relay.Event) *write.Point {
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	tags := map[string]string{"kind": string(ev.Kind)}
	if ev.DeviceID != "" {
		tags["device_id"] = ev.DeviceID
	}

	fields := map[string]any{"count": 1}
	if ev.Action != "" {
		fields["action"] = ev.Action
	}
	if ev.ConnectionID != "" {
		fields["connection_id"] = ev.ConnectionID
	}

	return write.NewPoint(MeasurementRelayEvents, tags, fields, ts)
}

func statsPoint(stats relay.Stats, devices int, ts time.Time) *write.Point {
	return write.NewPoint(MeasurementRelayStats, nil, map[string]any{
		"messages_received": stats.MessagesReceived,
		"registrations":     stats.Registrations,
		"forwarded":         stats.Forwarded,
		"not_connected":     stats.NotConnected,
		"send_failures":     stats.SendFailures,
		"ignored":           stats.Ignored,
		"unhandled":         stats.Unhandled,
		"connections":       stats.Connections,
		"devices":           devices,
	}, ts)
}
