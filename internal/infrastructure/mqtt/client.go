package mqtt

import (
	"fmt"
	"strings"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/lokasync/lokasync-core/internal/infrastructure/config"
)

// State is the connection state of the Manager.
//
// Transitions:
//
//	connecting -> connected     (initial connect, or reconnect success)
//	connected  -> disconnected  (explicit Close)
//	connected  -> erroring      (network drop, broker error)
//	erroring   -> connecting    (transport retry kicks in)
type State int

// Connection states.
const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
	StateErroring
)

// String returns the lowercase state name for logging and the UI status
// indicator.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateErroring:
		return "erroring"
	default:
		return "unknown"
	}
}

// Message is a raw inbound envelope handed to message observers.
type Message struct {
	Topic   string
	Payload []byte
}

// Logger is the logging interface used by the Manager.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Manager owns the single persistent publish/subscribe connection to the
// broker.
//
// It is constructed once by the composition root and shared by every
// consumer; there is no package-level instance. It handles connect and
// retry, fixed-topic subscription on every connected transition, outbound
// publish with acknowledgement, and observer fan-out for connection state
// and inbound messages.
//
// Reconnection is delegated to the transport's own retry policy at a
// fixed short interval; the Manager only reacts to state-change events.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Manager struct {
	client   pahomqtt.Client
	cfg      config.MQTTConfig
	clientID string
	logger   Logger

	state   State
	stateMu sync.RWMutex

	connObservers observerList[State]
	logObservers  observerList[Message]
	monObservers  observerList[Message]
}

// Connect creates the Manager and immediately attempts connection using
// the configured broker URL and optional credentials.
//
// The configured client id gets a randomized suffix so concurrently open
// instances never collide on broker-side sessions. After a successful
// connection (and after every reconnect) the Manager subscribes to the
// fixed update-log and monitoring topics at the configured QoS.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//   - logger: Logger for connection and subscription events
//
// Returns:
//   - *Manager: Connected manager ready for use
//   - error: If the initial connection fails within the timeout
func Connect(cfg config.MQTTConfig, logger Logger) (*Manager, error) {
	clientID := randomizedClientID(cfg.Broker.ClientID)

	m := &Manager{
		cfg:      cfg,
		clientID: clientID,
		logger:   logger,
		state:    StateConnecting,
	}

	opts := buildClientOptions(cfg, clientID)

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		m.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		m.handleConnectionLost(err)
	})
	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		m.setState(StateConnecting)
	})

	m.client = pahomqtt.NewClient(opts)
	token := m.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnectHandler runs asynchronously and may not have executed
	// yet; mark connected here so IsConnected() is true on return.
	m.stateMu.Lock()
	m.state = StateConnected
	m.stateMu.Unlock()

	return m, nil
}

// handleConnect runs on every connected transition (initial and reconnect).
func (m *Manager) handleConnect() {
	m.setState(StateConnected)
	m.subscribeFixedTopics()
}

// handleConnectionLost runs when the broker connection drops.
// The transport's retry policy takes over; observers see the status
// change, not an error dialog.
func (m *Manager) handleConnectionLost(err error) {
	m.logger.Warn("mqtt connection lost", "error", err)
	m.setState(StateErroring)
}

// setState records the new state and notifies connection observers
// synchronously, in registration order. No-op if the state is unchanged.
func (m *Manager) setState(s State) {
	m.stateMu.Lock()
	if m.state == s {
		m.stateMu.Unlock()
		return
	}
	m.state = s
	m.stateMu.Unlock()

	m.connObservers.notify(s)
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// IsConnected reports whether the transport is currently connected.
func (m *Manager) IsConnected() bool {
	m.stateMu.RLock()
	state := m.state
	m.stateMu.RUnlock()
	return state == StateConnected && m.client != nil && m.client.IsConnected()
}

// ClientID returns the randomized client identifier used for this
// connection.
func (m *Manager) ClientID() string {
	return m.clientID
}

// OnConnectionChange registers an observer for connection state changes.
// Observers are invoked synchronously, in registration order. The
// returned handle unregisters the observer; UI components must call it on
// teardown to avoid leaks.
func (m *Manager) OnConnectionChange(fn func(State)) UnsubscribeFunc {
	return m.connObservers.add(fn)
}

// OnLogMessage registers an observer for raw inbound update-log envelopes.
func (m *Manager) OnLogMessage(fn func(Message)) UnsubscribeFunc {
	return m.logObservers.add(fn)
}

// OnMonitoringMessage registers an observer for raw inbound telemetry
// envelopes.
func (m *Manager) OnMonitoringMessage(fn func(Message)) UnsubscribeFunc {
	return m.monObservers.add(fn)
}

// Close disconnects from the broker gracefully and transitions to
// disconnected.
func (m *Manager) Close() error {
	if m.client == nil {
		return nil
	}
	m.client.Disconnect(defaultDisconnectQuiesce)
	m.setState(StateDisconnected)
	return nil
}

// randomizedClientID appends a random suffix to the configured client id
// prefix, avoiding broker-side session collisions across concurrently
// running instances.
func randomizedClientID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:clientIDSuffixLen]
	return prefix + "-" + suffix
}
