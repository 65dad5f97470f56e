// Package config loads and validates the robot relay configuration.
//
// Values are resolved in three layers: hardcoded defaults, an optional
// YAML file, then ROBOTRELAY_* environment variables. The relay runs with
// no file at all, listening on 0.0.0.0:8080 with every optional backend
// (database, MQTT, InfluxDB) disabled.
//
// Setting ROBOTRELAY_DATABASE_PATH, ROBOTRELAY_MQTT_HOST or
// ROBOTRELAY_INFLUXDB_URL also enables the matching backend.
//
// Usage:
//
//	cfg, err := config.Load(os.Getenv("ROBOTRELAY_CONFIG"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Addr())
package config
