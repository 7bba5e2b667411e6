package stream

import "errors"

// Domain-specific errors for the subscription client.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoHandler is returned when Connect is called without a
	// message handler.
	ErrNoHandler = errors.New("stream: message handler is required")

	// ErrInvalidTopic is returned when Connect is called with an
	// empty topic.
	ErrInvalidTopic = errors.New("stream: topic cannot be empty")

	// ErrAlreadyConnected is returned when Connect is called on a
	// client whose receive loop is already running.
	ErrAlreadyConnected = errors.New("stream: already connected")
)
