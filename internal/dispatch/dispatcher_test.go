package dispatch

import (
	"testing"

	"github.com/lokasync/lokasync-core/internal/infrastructure/config"
	"github.com/lokasync/lokasync-core/internal/infrastructure/mqtt"
	"github.com/lokasync/lokasync-core/internal/telemetry"
	"github.com/lokasync/lokasync-core/internal/updatelog"
)

type nopLogger struct{}

func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}

func testTopics() config.MQTTTopicConfig {
	return config.MQTTTopicConfig{
		Log:        "lokasync/ota/log",
		Monitoring: "lokasync/monitoring",
		Push:       "lokasync/ota/update",
	}
}

func TestHandleMessageUpdateLog(t *testing.T) {
	d := NewDispatcher(testTopics(), nopLogger{})

	var got []updatelog.Envelope
	d.OnUpdateLog(func(env updatelog.Envelope) { got = append(got, env) })

	d.HandleMessage(mqtt.Message{
		Topic:   "lokasync/ota/log",
		Payload: []byte(`{"session_id": "Ab3Kf12345", "flash_status": "success"}`),
	})

	if len(got) != 1 {
		t.Fatalf("observer called %d times, want 1", len(got))
	}
	if *got[0].SessionID != "Ab3Kf12345" || *got[0].FlashStatus != updatelog.StatusSuccess {
		t.Errorf("envelope = %+v", got[0])
	}
}

func TestHandleMessageTelemetry(t *testing.T) {
	d := NewDispatcher(testTopics(), nopLogger{})

	var got []telemetry.Reading
	d.OnTelemetry(func(r telemetry.Reading) { got = append(got, r) })

	d.HandleMessage(mqtt.Message{
		Topic:   "lokasync/monitoring",
		Payload: []byte(`{"device_codename": "greenhouse-a_sensor_node-1", "temperature": 24.1}`),
	})

	if len(got) != 1 {
		t.Fatalf("observer called %d times, want 1", len(got))
	}
	if got[0].Metrics[telemetry.MetricTemperature] != 24.1 {
		t.Errorf("reading = %+v", got[0])
	}
}

func TestHandleMessageDropsBadPayloads(t *testing.T) {
	d := NewDispatcher(testTopics(), nopLogger{})

	logCalls, telCalls := 0, 0
	d.OnUpdateLog(func(updatelog.Envelope) { logCalls++ })
	d.OnTelemetry(func(telemetry.Reading) { telCalls++ })

	d.HandleMessage(mqtt.Message{Topic: "lokasync/ota/log", Payload: []byte(`not json`)})
	d.HandleMessage(mqtt.Message{Topic: "lokasync/monitoring", Payload: []byte(`{"no": "codename"}`)})

	if logCalls != 0 || telCalls != 0 {
		t.Errorf("observers called (%d, %d) for undecodable payloads, want (0, 0)", logCalls, telCalls)
	}
}

func TestHandleMessageIgnoresUnknownTopic(t *testing.T) {
	d := NewDispatcher(testTopics(), nopLogger{})

	calls := 0
	d.OnUpdateLog(func(updatelog.Envelope) { calls++ })

	d.HandleMessage(mqtt.Message{
		Topic:   "lokasync/other",
		Payload: []byte(`{"session_id": "Ab3Kf12345"}`),
	})

	if calls != 0 {
		t.Errorf("observer called %d times for unknown topic, want 0", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher(testTopics(), nopLogger{})

	calls := 0
	unsub := d.OnUpdateLog(func(updatelog.Envelope) { calls++ })
	unsub()
	unsub() // second call is a no-op

	d.HandleMessage(mqtt.Message{
		Topic:   "lokasync/ota/log",
		Payload: []byte(`{"session_id": "Ab3Kf12345"}`),
	})

	if calls != 0 {
		t.Errorf("unsubscribed observer called %d times", calls)
	}
}

func TestObserverOrder(t *testing.T) {
	d := NewDispatcher(testTopics(), nopLogger{})

	var order []int
	d.OnUpdateLog(func(updatelog.Envelope) { order = append(order, 1) })
	d.OnUpdateLog(func(updatelog.Envelope) { order = append(order, 2) })

	d.HandleMessage(mqtt.Message{
		Topic:   "lokasync/ota/log",
		Payload: []byte(`{"session_id": "Ab3Kf12345"}`),
	})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("dispatch order = %v, want registration order", order)
	}
}
