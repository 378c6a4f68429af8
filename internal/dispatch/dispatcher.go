// Package dispatch classifies raw broker messages and fans them out as
// typed events.
//
// The transport layer delivers opaque topic/payload pairs. The
// Dispatcher decides whether a message is an update-log progress
// report or a telemetry reading by its topic, decodes the payload, and
// notifies the matching typed observers. Messages on unknown topics
// and payloads that fail decoding are dropped with a log line; a
// misbehaving device must never take the pipeline down.
package dispatch

import (
	"sync"

	"github.com/lokasync/lokasync-core/internal/infrastructure/config"
	"github.com/lokasync/lokasync-core/internal/infrastructure/mqtt"
	"github.com/lokasync/lokasync-core/internal/telemetry"
	"github.com/lokasync/lokasync-core/internal/updatelog"
)

// Logger is the logging interface used by the Dispatcher.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Dispatcher decodes classified messages and notifies typed observers.
//
// Observers are invoked synchronously, in registration order, on the
// delivering goroutine. The observer list is snapshotted before
// dispatch, so unsubscribing during a notification is safe.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Dispatcher struct {
	topics config.MQTTTopicConfig
	logger Logger

	mu           sync.Mutex
	nextID       int
	logObservers []logObserver
	telObservers []telObserver
}

type logObserver struct {
	id int
	fn func(updatelog.Envelope)
}

type telObserver struct {
	id int
	fn func(telemetry.Reading)
}

// NewDispatcher creates a dispatcher classifying by the configured
// topic names.
func NewDispatcher(topics config.MQTTTopicConfig, logger Logger) *Dispatcher {
	return &Dispatcher{topics: topics, logger: logger}
}

// Attach subscribes the dispatcher to the transport's inbound message
// streams. The returned handle detaches it again.
func (d *Dispatcher) Attach(m *mqtt.Manager) mqtt.UnsubscribeFunc {
	unsubLog := m.OnLogMessage(d.HandleMessage)
	unsubMon := m.OnMonitoringMessage(d.HandleMessage)
	return func() {
		unsubLog()
		unsubMon()
	}
}

// HandleMessage classifies and dispatches one raw message.
func (d *Dispatcher) HandleMessage(msg mqtt.Message) {
	switch msg.Topic {
	case d.topics.Log:
		d.handleUpdateLog(msg)
	case d.topics.Monitoring:
		d.handleTelemetry(msg)
	default:
		d.logger.Debug("message on unhandled topic dropped", "topic", msg.Topic)
	}
}

func (d *Dispatcher) handleUpdateLog(msg mqtt.Message) {
	env, err := updatelog.ParseEnvelope(msg.Payload)
	if err != nil {
		d.logger.Warn("dropping undecodable update-log payload",
			"topic", msg.Topic, "error", err)
		return
	}
	for _, obs := range d.snapshotLogObservers() {
		obs.fn(env)
	}
}

func (d *Dispatcher) handleTelemetry(msg mqtt.Message) {
	reading, err := telemetry.ParseReading(msg.Payload)
	if err != nil {
		d.logger.Warn("dropping undecodable telemetry payload",
			"topic", msg.Topic, "error", err)
		return
	}
	for _, obs := range d.snapshotTelObservers() {
		obs.fn(reading)
	}
}

// OnUpdateLog registers an observer for decoded update-log envelopes.
func (d *Dispatcher) OnUpdateLog(fn func(updatelog.Envelope)) mqtt.UnsubscribeFunc {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.logObservers = append(d.logObservers, logObserver{id: id, fn: fn})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, obs := range d.logObservers {
			if obs.id == id {
				d.logObservers = append(d.logObservers[:i], d.logObservers[i+1:]...)
				return
			}
		}
	}
}

// OnTelemetry registers an observer for normalized telemetry readings.
func (d *Dispatcher) OnTelemetry(fn func(telemetry.Reading)) mqtt.UnsubscribeFunc {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.telObservers = append(d.telObservers, telObserver{id: id, fn: fn})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, obs := range d.telObservers {
			if obs.id == id {
				d.telObservers = append(d.telObservers[:i], d.telObservers[i+1:]...)
				return
			}
		}
	}
}

func (d *Dispatcher) snapshotLogObservers() []logObserver {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]logObserver, len(d.logObservers))
	copy(out, d.logObservers)
	return out
}

func (d *Dispatcher) snapshotTelObservers() []telObserver {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]telObserver, len(d.telObservers))
	copy(out, d.telObservers)
	return out
}
