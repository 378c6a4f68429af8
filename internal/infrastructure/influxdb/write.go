package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/lokasync/lokasync-core/internal/telemetry"
)

// WriteReading records a normalized telemetry reading.
//
// Each metric in the reading becomes a field on one point in the
// sensor_readings measurement, tagged by device codename. The write
// is non-blocking; points are batched and sent asynchronously.
func (c *Client) WriteReading(r telemetry.Reading) {
	if !c.IsConnected() || len(r.Metrics) == 0 {
		return
	}

	fields := make(map[string]interface{}, len(r.Metrics))
	for key, val := range r.Metrics {
		fields[key] = val
	}

	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"device_codename": r.DeviceCodename,
		},
		fields,
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// WriteUpdateEvent records a firmware update lifecycle event.
//
// Used to chart update activity and failure rates over time.
//
// Parameters:
//   - deviceCodename: Device the update ran on
//   - firmwareVersion: Version that was pushed
//   - flashStatus: Final or intermediate flash status
func (c *Client) WriteUpdateEvent(deviceCodename, firmwareVersion, flashStatus string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"update_events",
		map[string]string{
			"device_codename":  deviceCodename,
			"firmware_version": firmwareVersion,
			"flash_status":     flashStatus,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
