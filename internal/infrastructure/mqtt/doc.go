// Package mqtt connects the relay to an MQTT broker.
//
// The broker is an optional second ingress and an event feed:
//
//	controller --publish--> <prefix>/command/<deviceId>  --Dispatch--> robot
//	relay      --publish--> <prefix>/events/<kind>        (JSON relay.Event)
//	relay      --retained-> <prefix>/system/status        (online/offline, LWT)
//
// A command message's payload is the action text, forwarded verbatim just
// like the action part of a WebSocket "cmd:" frame.
//
// Client wraps paho.mqtt.golang: it restores subscriptions after a
// reconnect, recovers panics in handlers, and publishes a retained status
// with a matching Last Will so subscribers see when the relay drops off.
// Bridge holds the relay-facing logic and is tested against a fake
// Transport; the Client tests skip when no broker listens on 127.0.0.1:1883.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	bridge := mqtt.NewBridge(client, client.Topics(), client.QoS(), router, logger)
//	if err := bridge.Start(); err != nil {
//	    return err
//	}
//	events.Subscribe(bridge)
package mqtt
