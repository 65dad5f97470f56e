package audit

import (
	"context"
	"time"

	"github.com/nerrad567/robot-relay/internal/relay"
)

// writeTimeout bounds each insert made by the Recorder.
const writeTimeout = 5 * time.Second

// Recorder is a relay.Observer that stores connection lifecycle events.
// Command traffic is never recorded.
type Recorder struct {
	repo   Repository
	logger relay.Logger
}

// NewRecorder creates a Recorder writing to repo.
func NewRecorder(repo Repository, logger relay.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Observe implements relay.Observer.
func (r *Recorder) Observe(ev relay.Event) {
	if !Recorded(ev.Kind) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	entry := &Entry{
		Kind:         string(ev.Kind),
		ConnectionID: ev.ConnectionID,
		DeviceID:     ev.DeviceID,
		RemoteAddr:   ev.RemoteAddr,
		CreatedAt:    ev.Time,
	}
	if err := r.repo.Create(ctx, entry); err != nil && r.logger != nil {
		r.logger.Error("failed to record relay event", "kind", ev.Kind, "error", err)
	}
}

// Recorded reports whether events of kind are kept in the audit log.
func Recorded(kind relay.EventKind) bool {
	switch kind {
	case relay.EventConnected, relay.EventRegistered, relay.EventSuperseded, relay.EventDisconnected:
		return true
	default:
		return false
	}
}
