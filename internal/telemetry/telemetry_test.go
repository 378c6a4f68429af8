package telemetry

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseReadingFlat(t *testing.T) {
	payload := []byte(`{
		"device_codename": "greenhouse-a_sensor_node-1",
		"timestamp": "2026-08-30T10:00:00Z",
		"temperature": 24.1,
		"humidity": 61.5,
		"soil_moisture": 40.2
	}`)

	r, err := ParseReading(payload)
	if err != nil {
		t.Fatalf("ParseReading() error = %v", err)
	}
	if r.DeviceCodename != "greenhouse-a_sensor_node-1" {
		t.Errorf("DeviceCodename = %q", r.DeviceCodename)
	}
	if !r.Timestamp.Equal(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Timestamp = %v, payload timestamp ignored", r.Timestamp)
	}
	if r.Metrics[MetricTemperature] != 24.1 || r.Metrics[MetricHumidity] != 61.5 {
		t.Errorf("Metrics = %v", r.Metrics)
	}
}

func TestParseReadingNestedWithAliases(t *testing.T) {
	payload := []byte(`{
		"device_codename": "greenhouse-a_sensor_node-1",
		"sensor_data": {"temp": 22.0, "hum": 55.0, "soil_moisture_percent": 38.1}
	}`)

	r, err := ParseReading(payload)
	if err != nil {
		t.Fatalf("ParseReading() error = %v", err)
	}
	want := map[string]float64{
		MetricTemperature:  22.0,
		MetricHumidity:     55.0,
		MetricSoilMoisture: 38.1,
	}
	for key, val := range want {
		if r.Metrics[key] != val {
			t.Errorf("Metrics[%s] = %v, want %v", key, r.Metrics[key], val)
		}
	}
	if r.Timestamp.IsZero() {
		t.Error("Timestamp zero, want receive time fallback")
	}
}

func TestParseReadingKeepsUnknownMetrics(t *testing.T) {
	payload := []byte(`{"device_codename": "lab_actuator_pump-2", "flow_rate": 3.2}`)

	r, err := ParseReading(payload)
	if err != nil {
		t.Fatalf("ParseReading() error = %v", err)
	}
	if r.Metrics["flow_rate"] != 3.2 {
		t.Errorf("Metrics = %v, unknown numeric key dropped", r.Metrics)
	}
}

func TestParseReadingErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"device_codename": `},
		{"missing codename", `{"temperature": 24.1}`},
		{"no metrics", `{"device_codename": "lab_actuator_pump-2", "status": "ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReading([]byte(tt.payload))
			if !errors.Is(err, ErrInvalidReading) {
				t.Errorf("ParseReading() error = %v, want ErrInvalidReading", err)
			}
		})
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	st := NewStore(3)
	for i := 1; i <= 5; i++ {
		st.Add(Reading{
			DeviceCodename: "greenhouse-a_sensor_node-1",
			Metrics:        map[string]float64{MetricTemperature: float64(i)},
		})
	}

	history := st.History("greenhouse-a_sensor_node-1")
	if len(history) != 3 {
		t.Fatalf("history length = %d, want capacity 3", len(history))
	}
	for i, want := range []float64{3, 4, 5} {
		if got := history[i].Metrics[MetricTemperature]; got != want {
			t.Errorf("history[%d] temperature = %v, want %v", i, got, want)
		}
	}
}

func TestStoreLatest(t *testing.T) {
	st := NewStore(10)

	if _, ok := st.Latest("missing"); ok {
		t.Error("Latest() ok = true for unknown device")
	}

	st.Add(Reading{DeviceCodename: "lab_actuator_pump-2", Metrics: map[string]float64{MetricHumidity: 50}})
	st.Add(Reading{DeviceCodename: "lab_actuator_pump-2", Metrics: map[string]float64{MetricHumidity: 51}})

	latest, ok := st.Latest("lab_actuator_pump-2")
	if !ok || latest.Metrics[MetricHumidity] != 51 {
		t.Errorf("Latest() = %v, %v", latest, ok)
	}
}

func TestStoreSeparatesDevices(t *testing.T) {
	st := NewStore(2)
	for i := 0; i < 4; i++ {
		st.Add(Reading{
			DeviceCodename: fmt.Sprintf("greenhouse-a_sensor_node-%d", i%2),
			Metrics:        map[string]float64{MetricTemperature: float64(i)},
		})
	}

	if got := len(st.Devices()); got != 2 {
		t.Errorf("Devices() length = %d, want 2", got)
	}
	if got := len(st.History("greenhouse-a_sensor_node-0")); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
}

func TestHistoryUnknownDevice(t *testing.T) {
	st := NewStore(5)
	if got := st.History("missing"); len(got) != 0 {
		t.Errorf("History() = %v, want empty", got)
	}
}
