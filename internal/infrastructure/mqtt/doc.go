// Package mqtt provides the transport manager for LokaSync Core.
//
// This package manages:
//   - The single persistent connection to the MQTT broker
//   - Fixed-topic subscriptions (update-log, monitoring) restored on
//     every reconnect
//   - Outbound firmware-push publishing with acknowledgement
//   - Observer fan-out for connection state and inbound messages
//
// # Architecture
//
// The broker decouples the dashboard from the devices in the field:
//
//	LokaSync Core ↔ MQTT Broker ↔ ESP32 nodes
//
// Devices publish OTA progress on the log topic and sensor readings on
// the monitoring topic; the dashboard publishes push commands on the
// update topic. Everything runs at QoS 1 ("at least once"), so consumers
// downstream of this package must be idempotent.
//
// # Resilience
//
// Connection loss is expected to self-heal: the transport retries at a
// fixed short interval and the Manager re-subscribes on every connected
// transition. Consumers observe this only as a status indicator via
// OnConnectionChange; no error dialogs. Publishing while disconnected
// fails fast with ErrNotConnected — there is no outbound queue and no
// implicit retry, because retrying a firmware push is a human decision.
//
// # Usage
//
//	manager, err := mqtt.Connect(cfg.MQTT, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Close()
//
//	unsub := manager.OnLogMessage(func(msg mqtt.Message) {
//	    // decode and reconcile
//	})
//	defer unsub()
//
//	err = manager.PublishUpdateCommand(payload)
package mqtt
