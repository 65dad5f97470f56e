package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/robot-relay/internal/infrastructure/config"
)

// testConfig returns settings for a local Mosquitto broker at 127.0.0.1:1883.
func testConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		TopicPrefix: "robotrelay-test",
	}
}

// connectOrSkip connects to the local broker or skips the test.
func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()

	client, err := Connect(testConfig(clientID))
	if err != nil {
		t.Skipf("MQTT broker not available: %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // test cleanup
	return client
}

// =============================================================================
// Broker Tests
// =============================================================================

func TestConnect(t *testing.T) {
	client := connectOrSkip(t, "robotrelay-test-connect")

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnect_BrokerRefused(t *testing.T) {
	cfg := testConfig("robotrelay-test-refused")
	cfg.Broker.Port = 19999

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClose(t *testing.T) {
	client := connectOrSkip(t, "robotrelay-test-close")

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() after Close() = true")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close() = %v, want ErrNotConnected", err)
	}
	if err := client.Publish("x", nil, 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() after Close() = %v, want ErrNotConnected", err)
	}
}

func TestCloseNil(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	client := connectOrSkip(t, "robotrelay-test-health")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() = %v, want context.Canceled", err)
	}
}

func TestPublishValidation(t *testing.T) {
	client := connectOrSkip(t, "robotrelay-test-validate")

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "robotrelay-test/x", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "robotrelay-test/x", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := client.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := connectOrSkip(t, "robotrelay-test-sub-validate")
	noop := func(string, []byte) error { return nil }

	if err := client.Subscribe("", 1, noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty) = %v, want ErrInvalidTopic", err)
	}
	if err := client.Subscribe("a/b", 3, noop); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) = %v, want ErrInvalidQoS", err)
	}
	if err := client.Subscribe("a/b", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) = %v, want ErrSubscribeFailed", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	client := connectOrSkip(t, "robotrelay-test-sub")
	topic := client.Topics().AllCommands()

	if err := client.Subscribe(topic, 1, func(string, []byte) error { return nil }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(topic) {
		t.Error("HasSubscription() = false after Subscribe")
	}

	if err := client.Unsubscribe(topic); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if client.HasSubscription(topic) {
		t.Error("HasSubscription() = true after Unsubscribe")
	}
}

func TestBridgeRoundtrip(t *testing.T) {
	client := connectOrSkip(t, "robotrelay-test-bridge")

	dispatcher := &recordingDispatcher{calls: make(chan [2]string, 1)}
	bridge := NewBridge(client, client.Topics(), 1, dispatcher, nil)
	if err := bridge.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := client.PublishString(client.Topics().Command("robot1"), "FORWARD:50", 1, false); err != nil {
		t.Fatalf("PublishString() error = %v", err)
	}

	select {
	case call := <-dispatcher.calls:
		if call != [2]string{"robot1", "FORWARD:50"} {
			t.Errorf("Dispatch(%q, %q), want (robot1, FORWARD:50)", call[0], call[1])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for dispatched command")
	}
}

func TestHandlerPanicRecovered(t *testing.T) {
	client := connectOrSkip(t, "robotrelay-test-panic")
	topic := "robotrelay-test/panic"

	var mu sync.Mutex
	calls := 0
	done := make(chan struct{}, 2)
	err := client.Subscribe(topic, 1, func(string, []byte) error {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		done <- struct{}{}
		if n == 1 {
			panic("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := client.PublishString(topic, "x", 1, false); err != nil {
			t.Fatalf("PublishString() error = %v", err)
		}
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("message %d not delivered after handler panic", i+1)
		}
	}
}
