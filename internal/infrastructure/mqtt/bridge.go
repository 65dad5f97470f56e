package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/robot-relay/internal/relay"
)

// Transport is the part of Client the bridge needs.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Unsubscribe(topic string) error
}

// Dispatcher forwards an action to a registered device.
// It is satisfied by *relay.Router.
type Dispatcher interface {
	Dispatch(target, action string) relay.Result
}

// Bridge connects the relay to the broker in both directions: command
// topics become Dispatch calls, and relay events are published as JSON.
type Bridge struct {
	transport  Transport
	topics     Topics
	qos        byte
	dispatcher Dispatcher
	logger     relay.Logger
}

// NewBridge creates a bridge. Call Start to begin consuming commands, and
// subscribe the bridge to the relay EventBus to publish events.
func NewBridge(transport Transport, topics Topics, qos byte, dispatcher Dispatcher, logger relay.Logger) *Bridge {
	return &Bridge{
		transport:  transport,
		topics:     topics,
		qos:        qos,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start subscribes to every command topic.
func (b *Bridge) Start() error {
	if err := b.transport.Subscribe(b.topics.AllCommands(), b.qos, b.handleCommand); err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}
	return nil
}

// Stop unsubscribes from the command topics. Events are still published
// while the bridge stays subscribed to the EventBus.
func (b *Bridge) Stop() error {
	if err := b.transport.Unsubscribe(b.topics.AllCommands()); err != nil {
		return fmt.Errorf("unsubscribing from commands: %w", err)
	}
	return nil
}

// handleCommand routes the payload of <prefix>/command/<deviceId> to the
// device. Empty payloads are dropped: a zero-length retained message is how
// clients clear a retained command.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	deviceID, ok := b.topics.ParseCommand(topic)
	if !ok {
		return fmt.Errorf("unexpected command topic %q", topic)
	}
	if len(payload) == 0 {
		return nil
	}

	result := b.dispatcher.Dispatch(deviceID, string(payload))
	if b.logger != nil {
		b.logger.Debug("mqtt command handled", "device_id", deviceID, "result", result.String())
	}
	return nil
}

// Observe implements relay.Observer by publishing ev to its event topic.
func (b *Bridge) Observe(ev relay.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		if b.logger != nil {
			b.logger.Debug("failed to encode relay event", "kind", ev.Kind, "error", err)
		}
		return
	}
	if err := b.transport.Publish(b.topics.Event(string(ev.Kind)), payload, b.qos, false); err != nil && b.logger != nil {
		b.logger.Warn("failed to publish relay event", "kind", ev.Kind, "error", err)
	}
}
