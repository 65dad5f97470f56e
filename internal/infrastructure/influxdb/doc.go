// Package influxdb records relay telemetry in InfluxDB v2.
//
// Every relay event becomes a point in the relay_events measurement,
// tagged with kind and device_id, and a periodic relay_stats point carries
// the router counters. Writes go through the client library's batched,
// non-blocking API so dispatch never waits on the database; batch failures
// arrive on the SetOnError callback.
//
// The integration is optional. Connect returns ErrDisabled unless
// influxdb.enabled is set.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry
//	}
//	events.Subscribe(client)
package influxdb
