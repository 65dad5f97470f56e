package relay

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// EventKind identifies what happened on the relay.
type EventKind string

// Event kinds emitted by the Router.
const (
	EventConnected    EventKind = "connected"
	EventRegistered   EventKind = "registered"
	EventSuperseded   EventKind = "superseded"
	EventForwarded    EventKind = "forwarded"
	EventNotConnected EventKind = "not_connected"
	EventSendFailed   EventKind = "send_failed"
	EventUnhandled    EventKind = "unhandled"
	EventUplink       EventKind = "uplink"
	EventDisconnected EventKind = "disconnected"
)

// Event describes one relay occurrence.
type Event struct {
	Kind         EventKind `json:"kind"`
	ConnectionID string    `json:"connection_id,omitempty"`
	DeviceID     string    `json:"device_id,omitempty"`
	RemoteAddr   string    `json:"remote_addr,omitempty"`
	Action       string    `json:"action,omitempty"`
	Message      string    `json:"message,omitempty"`
	Time         time.Time `json:"time"`
}

// Observer receives relay events.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ev Event) { f(ev) }

// defaultEventBufferSize is the EventBus queue length when none is given.
const defaultEventBufferSize = 1024

// EventBus decouples event producers from observers.
//
// Publish never blocks: events are queued and delivered to every observer by
// a single goroutine started with Run. When the queue is full the event is
// dropped and counted. Observers are called sequentially, in publish order.
type EventBus struct {
	queue     chan Event
	mu        sync.RWMutex
	observers []Observer
	dropped   atomic.Uint64
}

// NewEventBus creates an event bus with the given queue length.
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = defaultEventBufferSize
	}
	return &EventBus{queue: make(chan Event, bufferSize)}
}

// Subscribe adds an observer. Observers added after Run still receive
// subsequent events.
func (b *EventBus) Subscribe(o Observer) {
	if o == nil {
		return
	}
	b.mu.Lock()
	b.observers = append(b.observers, o)
	b.mu.Unlock()
}

// Publish queues ev for delivery, dropping it if the queue is full.
func (b *EventBus) Publish(ev Event) {
	select {
	case b.queue <- ev:
	default:
		b.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Run delivers queued events until ctx is cancelled, then drains whatever
// is already queued.
func (b *EventBus) Run(ctx context.Context) {
	for {
		select {
		case ev := <-b.queue:
			b.deliver(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-b.queue:
					b.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (b *EventBus) deliver(ev Event) {
	b.mu.RLock()
	observers := b.observers
	b.mu.RUnlock()

	for _, o := range observers {
		observeSafely(o, ev)
	}
}

// observeSafely isolates the bus goroutine from a panicking observer.
func observeSafely(o Observer, ev Event) {
	defer func() {
		recover() //nolint:errcheck // one faulty observer must not stop delivery
	}()
	o.Observe(ev)
}
