// Package relay provides the connection registry and message router for the
// robot relay.
//
// Controllers send textual commands addressed by device identifier; the
// relay forwards each command to the connection currently registered under
// that identifier.
//
// # Architecture
//
//	┌──────────────┐   raw text   ┌──────────────┐  register / lookup  ┌──────────────┐
//	│  Transport   │─────────────▶│    Router    │────────────────────▶│   Registry   │
//	│ (api/ws.go)  │◀─────────────│ (router.go)  │                     │(registry.go) │
//	└──────────────┘   Send()     └──────────────┘                     └──────────────┘
//	                                     │ events
//	                                     ▼
//	                              ┌──────────────┐
//	                              │   EventBus   │──▶ audit, MQTT, InfluxDB
//	                              └──────────────┘
//
// # Wire Protocol
//
//	register:robot:<deviceId>     registers the sending connection
//	cmd:<deviceId>:<action...>    forwards <action...> verbatim to the device
//
// Anything else is logged and dropped. No acknowledgement frames exist;
// every forward is one-shot and best-effort.
//
// # Registry Identity
//
// Unregistration on close compares connection identity, not just the
// identifier. A device that reconnects before its old connection's close
// is processed keeps its new registration when the old one closes.
//
// Thread Safety: Registry, Router and EventBus are safe for concurrent use.
package relay
