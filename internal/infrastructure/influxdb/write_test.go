package influxdb

import (
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/robot-relay/internal/relay"
)

func lineProtocol(p *write.Point) string {
	return write.PointToLineProtocol(p, time.Nanosecond)
}

func TestEventPoint(t *testing.T) {
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		ev       relay.Event
		contains []string
		absent   []string
	}{
		{
			name: "forwarded",
			ev:   relay.Event{Kind: relay.EventForwarded, DeviceID: "robot1", ConnectionID: "c1", Action: "FORWARD:50", Time: when},
			contains: []string{
				"relay_events,device_id=robot1,kind=forwarded ",
				`action="FORWARD:50"`,
				`connection_id="c1"`,
				"count=1i",
			},
		},
		{
			name:     "connected without device",
			ev:       relay.Event{Kind: relay.EventConnected, ConnectionID: "c2", Time: when},
			contains: []string{"relay_events,kind=connected "},
			absent:   []string{"device_id", "action="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := lineProtocol(eventPoint(tt.ev))
			for _, want := range tt.contains {
				if !strings.Contains(line, want) {
					t.Errorf("line %q missing %q", line, want)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(line, bad) {
					t.Errorf("line %q should not contain %q", line, bad)
				}
			}
		})
	}
}

func TestEventPoint_ZeroTimeUsesNow(t *testing.T) {
	before := time.Now()
	p := eventPoint(relay.Event{Kind: relay.EventUnhandled})
	if p.Time().Before(before) {
		t.Errorf("point time %v before %v", p.Time(), before)
	}
}

func TestStatsPoint(t *testing.T) {
	line := lineProtocol(statsPoint(relay.Stats{Forwarded: 3, Connections: 2}, 1, time.Now()))

	for _, want := range []string{"relay_stats ", "forwarded=3u", "connections=2i", "devices=1i"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestWriteOnDisconnectedClientIsNoop(t *testing.T) {
	c := &Client{}
	c.WriteRelayEvent(relay.Event{Kind: relay.EventConnected})
	c.Observe(relay.Event{Kind: relay.EventConnected})
	c.WriteStats(relay.Stats{}, 0)
	c.Flush()
}
