package home

import "errors"

// Domain-specific errors for session lifecycle management.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrSessionActive is returned when Setup is called on a session
	// that is already running.
	ErrSessionActive = errors.New("home: session already active")

	// ErrHomeIDMissing is returned when the platform's general-info
	// response carries no home identifier.
	ErrHomeIDMissing = errors.New("home: response missing home id")
)
