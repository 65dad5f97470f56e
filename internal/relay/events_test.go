package relay

import (
	"context"
	"testing"
	"time"
)

func TestEventBus_DropsWhenFull(t *testing.T) {
	bus := NewEventBus(2)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{Kind: EventForwarded})
	}
	if got := bus.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

func TestEventBus_RunDelivers(t *testing.T) {
	bus := NewEventBus(8)
	got := make(chan Event, 1)
	bus.Subscribe(ObserverFunc(func(ev Event) { got <- ev }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Run(ctx)

	bus.Publish(Event{Kind: EventRegistered, DeviceID: "robot1"})

	select {
	case ev := <-got:
		if ev.DeviceID != "robot1" {
			t.Errorf("DeviceID = %q, want robot1", ev.DeviceID)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestEventBus_PanickingObserver(t *testing.T) {
	bus := NewEventBus(4)
	rec := &recorder{}
	bus.Subscribe(ObserverFunc(func(Event) { panic("boom") }))
	bus.Subscribe(rec)

	bus.Publish(Event{Kind: EventForwarded})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Run(ctx)

	if got := rec.kinds(); len(got) != 1 {
		t.Errorf("observer after a panicking one received %d events, want 1", len(got))
	}
}
