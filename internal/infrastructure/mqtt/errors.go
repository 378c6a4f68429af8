package mqtt

import "errors"

// Domain-specific errors for transport operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when a publish is attempted while the
	// transport is down. The publish is rejected immediately; nothing is
	// queued.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishRejected is returned when the broker acknowledges a publish
	// with an error.
	ErrPublishRejected = errors.New("mqtt: publish rejected")

	// ErrPublishTimeout is returned when the broker does not acknowledge a
	// publish within the bounded wait. The caller must treat delivery as
	// unknown and ask the operator before retrying: a firmware push must
	// never be sent twice without explicit confirmation.
	ErrPublishTimeout = errors.New("mqtt: publish acknowledgement timed out")

	// ErrSubscribeFailed is returned when a topic subscription fails.
	// Subscriptions are not retried automatically.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
