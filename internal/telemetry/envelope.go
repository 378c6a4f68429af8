package telemetry

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Canonical metric keys. Alternate firmware spellings are folded into
// these before a Reading is stored.
const (
	MetricTemperature  = "temperature"
	MetricHumidity     = "humidity"
	MetricSoilMoisture = "soil_moisture"
)

// metricAliases maps firmware key spellings to canonical metric keys.
var metricAliases = map[string]string{
	"temp":                  MetricTemperature,
	"temperature_c":         MetricTemperature,
	"hum":                   MetricHumidity,
	"humidity_percent":      MetricHumidity,
	"soil":                  MetricSoilMoisture,
	"soil_moisture_percent": MetricSoilMoisture,
}

// nonMetricKeys are top-level payload fields that are never sensor
// values.
var nonMetricKeys = map[string]bool{
	"device_codename": true,
	"timestamp":       true,
	"sensor_data":     true,
}

// Reading is one normalized telemetry sample from a device.
type Reading struct {
	DeviceCodename string             `json:"device_codename"`
	Timestamp      time.Time          `json:"timestamp"`
	Metrics        map[string]float64 `json:"metrics"`
}

// ParseReading decodes a raw monitoring payload into a Reading.
//
// Accepted shapes:
//
//	{"device_codename": "...", "temperature": 24.1, "humidity": 60}
//	{"device_codename": "...", "sensor_data": {"temp": 24.1, "hum": 60}}
//
// Non-numeric values are skipped. A payload with no device codename or
// no numeric metrics is rejected.
func ParseReading(payload []byte) (Reading, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Reading{}, fmt.Errorf("%w: %w", ErrInvalidReading, err)
	}

	cn, _ := raw["device_codename"].(string)
	cn = strings.TrimSpace(cn)
	if cn == "" {
		return Reading{}, fmt.Errorf("%w: no device_codename", ErrInvalidReading)
	}

	reading := Reading{
		DeviceCodename: cn,
		Timestamp:      time.Now().UTC(),
		Metrics:        map[string]float64{},
	}

	if ts, ok := raw["timestamp"].(string); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			reading.Timestamp = t.UTC()
		}
	}

	collectMetrics(raw, reading.Metrics)
	if nested, ok := raw["sensor_data"].(map[string]any); ok {
		collectMetrics(nested, reading.Metrics)
	}

	if len(reading.Metrics) == 0 {
		return Reading{}, fmt.Errorf("%w: no numeric metrics", ErrInvalidReading)
	}

	return reading, nil
}

// collectMetrics copies numeric fields into dest under canonical keys.
func collectMetrics(src map[string]any, dest map[string]float64) {
	for key, val := range src {
		if nonMetricKeys[key] {
			continue
		}
		num, ok := val.(float64)
		if !ok {
			continue
		}
		if canonical, found := metricAliases[key]; found {
			key = canonical
		}
		dest[key] = num
	}
}
