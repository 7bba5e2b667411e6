package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist
	// in the registry.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrRegistryNotLoaded is returned when a lookup happens before
	// the first successful Load.
	ErrRegistryNotLoaded = errors.New("device: registry not loaded")

	// ErrNoStateStore is returned when an operation requires the
	// optional state store and none was configured.
	ErrNoStateStore = errors.New("device: no state store configured")
)
