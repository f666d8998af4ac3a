// Package influxdb stores the daemon's time-series metrics.
//
// Three kinds of data end up here, all sourced from mesh packets:
// per-node device telemetry (battery, voltage, utilisation), link
// quality per neighbour (SNR/RSSI), and environment sensor readings
// relayed over the mesh. A periodic mesh_stats summary rounds it out.
//
// The wrapper keeps the official influxdb-client-go v2 semantics:
// writes are batched and non-blocking, so the write helpers never
// return an error. Failures arrive asynchronously through SetOnError,
// where the daemon logs them. Batch size and flush interval come from
// config.yaml.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteNodeTelemetry("!0a0b0c0d", 92, 4.01, 12.5, 3.2)
//
// The integration is optional: Connect returns ErrDisabled when turned
// off in config and the daemon runs without metrics.
package influxdb
