// Package influxdb provides long-term telemetry retention for
// LokaSync.
//
// It wraps the official influxdb-client-go v2 library. The in-memory
// telemetry store serves the dashboard's live charts; this package is
// the durable archive: every normalized sensor reading and firmware
// update event lands here when the integration is enabled.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // ErrDisabled when turned off in config
//	}
//	defer client.Close()
//
//	client.WriteReading(reading)
//	client.WriteUpdateEvent("greenhouse-a_sensor_node-1", "2.1.0", "success")
//
// # Error Handling
//
// Writes are non-blocking and batched; asynchronous failures are
// delivered through the SetOnError callback. Connection and health
// check errors are returned directly.
package influxdb
