// Package api serves the relay's WebSocket endpoint and its HTTP API.
//
// Every accepted WebSocket becomes a relay.Conn serviced by two goroutines:
// a read pump that hands each text frame to relay.Router in arrival order,
// and a write pump that drains the connection's bounded send buffer. When
// the read pump exits the connection is marked closed and the router
// unregisters it.
//
// The socket is accepted on "/" (the path robots and controllers dial) and
// on the configured path, /ws by default.
//
// HTTP endpoints under /api/v1:
//
//	GET  /health                 status and version
//	GET  /metrics                runtime, relay and backend statistics
//	GET  /devices                registered devices
//	GET  /devices/{id}           one device, 404 if not registered
//	POST /devices/{id}/commands  {"action": "..."}; 202 forwarded, 404 not_connected
//	GET  /events                 session audit log; 503 when the database is disabled
//
// There is no authentication: the relay trusts every client.
package api
