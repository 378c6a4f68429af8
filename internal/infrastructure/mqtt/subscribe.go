package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// subscribeFixedTopics (re-)subscribes to the update-log and monitoring
// topics at the configured QoS.
//
// Called on every connected transition, so subscriptions survive
// reconnects without broker-side session state. A failed subscription is
// logged and not retried: the operator reloads the dashboard to recover.
// Messages on any other topic never reach the Manager because nothing
// else is subscribed.
func (m *Manager) subscribeFixedTopics() {
	subs := []struct {
		topic     string
		observers *observerList[Message]
	}{
		{m.cfg.Topics.Log, &m.logObservers},
		{m.cfg.Topics.Monitoring, &m.monObservers},
	}

	for _, sub := range subs {
		if err := m.subscribe(sub.topic, sub.observers); err != nil {
			m.logger.Error("mqtt subscription failed, operator reload required",
				"topic", sub.topic,
				"error", err,
			)
			continue
		}
		m.logger.Info("mqtt subscribed", "topic", sub.topic, "qos", m.cfg.QoS)
	}
}

// subscribe registers a broker subscription whose handler fans the raw
// message out to the given observer list.
func (m *Manager) subscribe(topic string, observers *observerList[Message]) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	handler := func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("panic recovered in mqtt message observer",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}()
		observers.notify(Message{Topic: msg.Topic(), Payload: msg.Payload()})
	}

	token := m.client.Subscribe(topic, byte(m.cfg.QoS), handler)
	if !token.WaitTimeout(defaultSubscribeTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultSubscribeTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}
