package mqtt

import (
	"fmt"
)

// maxPayloadSize caps outbound payloads (1MB), aligning with typical
// broker limits.
const maxPayloadSize = 1 << 20

// Publish sends a payload to the given topic at the configured QoS
// ("at least once") and waits for the broker's acknowledgement.
//
// Failure semantics follow the push contract:
//   - ErrNotConnected: transport is down; the publish is rejected
//     immediately and nothing is queued
//   - ErrPublishTimeout: no acknowledgement within the bounded wait
//   - ErrPublishRejected: the broker acknowledged with an error
//
// There is no implicit retry on any failure. The caller surfaces the
// error to the operator, who decides whether to push again — a firmware
// push must not be sent twice without explicit confirmation.
func (m *Manager) Publish(topic string, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishRejected, len(payload), maxPayloadSize)
	}

	if !m.IsConnected() {
		return ErrNotConnected
	}

	token := m.client.Publish(topic, byte(m.cfg.QoS), false, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: no acknowledgement after %v", ErrPublishTimeout, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishRejected, err)
	}

	return nil
}

// PublishUpdateCommand publishes an already-serialized firmware-push
// command to the fixed outbound command topic.
func (m *Manager) PublishUpdateCommand(payload []byte) error {
	return m.Publish(m.cfg.Topics.Push, payload)
}
