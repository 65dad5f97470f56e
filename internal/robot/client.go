package robot

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"

	"github.com/nerrad567/robot-relay/internal/relay"
)

// DefaultReconnectDelay is the pause between connection attempts.
const DefaultReconnectDelay = 5 * time.Second

// Actuator performs motions. Implementations drive hardware or, in the
// simulator, log what the hardware would do.
type Actuator interface {
	Actuate(a Action)
}

// ActuatorFunc adapts a function to the Actuator interface.
type ActuatorFunc func(a Action)

// Actuate calls f(a).
func (f ActuatorFunc) Actuate(a Action) { f(a) }

// LogActuator logs each motion instead of moving.
type LogActuator struct {
	Logger relay.Logger
}

// Actuate logs the motion and its argument.
func (l LogActuator) Actuate(a Action) {
	l.Logger.Info("actuate", "motion", a.Motion.String(), "arg", a.Arg)
}

// Config configures a Client.
type Config struct {
	URL            string
	DeviceID       string
	ReconnectDelay time.Duration
}

// Client is the device side of the relay: it keeps a WebSocket open to the
// relay, registers under its device id on every connect, and hands each
// received action to an Actuator.
type Client struct {
	cfg      Config
	actuator Actuator
	logger   relay.Logger

	connects atomic.Int64
	received atomic.Int64
	unknown  atomic.Int64
}

// NewClient validates cfg and creates a client. A zero ReconnectDelay
// defaults to DefaultReconnectDelay.
func NewClient(cfg Config, actuator Actuator, logger relay.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrNoURL
	}
	if err := validateDeviceID(cfg.DeviceID); err != nil {
		return nil, err
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if logger == nil {
		logger = relay.NopLogger{}
	}
	if actuator == nil {
		actuator = LogActuator{Logger: logger}
	}
	return &Client{cfg: cfg, actuator: actuator, logger: logger}, nil
}

// Run connects to the relay and processes actions until ctx is cancelled,
// reconnecting after ReconnectDelay whenever the connection fails or drops.
// It returns nil once ctx is done.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("relay connection lost",
			"url", c.cfg.URL,
			"error", err,
			"retry_in", c.cfg.ReconnectDelay,
		)

		select {
		case <-time.After(c.cfg.ReconnectDelay):
		case <-ctx.Done():
			return nil
		}
	}
}

// Connects returns how many times the client has connected and registered.
func (c *Client) Connects() int64 { return c.connects.Load() }

// Received returns how many actions the client has received.
func (c *Client) Received() int64 { return c.received.Load() }

// Unknown returns how many received actions named no known motion.
func (c *Client) Unknown() int64 { return c.unknown.Load() }

func (c *Client) runOnce(ctx context.Context) error {
	ws, _, err := websocket.Dial(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer ws.CloseNow() //nolint:errcheck // already closing

	if err := ws.Write(ctx, websocket.MessageText, []byte(relay.FormatRegistration(c.cfg.DeviceID))); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	c.connects.Add(1)
	c.logger.Info("robot connected", "url", c.cfg.URL, "device_id", c.cfg.DeviceID)

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		c.handle(string(data))
	}
}

func (c *Client) handle(payload string) {
	c.received.Add(1)
	c.logger.Info("action received", "device_id", c.cfg.DeviceID, "action", payload)

	action := ParseAction(payload)
	if !action.Known() {
		c.unknown.Add(1)
		c.logger.Info("unknown command", "device_id", c.cfg.DeviceID, "action", payload)
		return
	}
	c.actuator.Actuate(action)
}

func validateDeviceID(id string) error {
	if id == "" || strings.Contains(id, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceID, id)
	}
	return nil
}
