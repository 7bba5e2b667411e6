package client

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-cloud/auth"
)

// Vendor response codes with dedicated handling.
const (
	codeSuccess            = "000000"
	codeTokenInvalid       = "000103"
	codeDeviceDisconnected = "000201"
)

// Client-side pseudo codes, kept in the vendor code space so every
// APIError carries a code.
const (
	codeInitialization = "-1001"
	codeRequestFailed  = "-1003"
)

// Domain-specific errors for API calls.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrRequestFailed is the generic failure category: transport
	// errors, malformed envelopes and unrecognised vendor codes.
	ErrRequestFailed = errors.New("client: request failed")

	// ErrDeviceDisconnected is returned when the target device is
	// unreachable (vendor code 000201). The executor retries this
	// once before surfacing it.
	ErrDeviceDisconnected = errors.New("client: device disconnected")

	// ErrInitialization is returned when a required collaborator is
	// missing at setup time.
	ErrInitialization = errors.New("client: initialization failed")
)

// APIError is a failure carrying the vendor code and description from
// a BRDP envelope (or a client-side pseudo code). It unwraps to one of
// the category sentinels above, or to auth.ErrAuthenticationFailed for
// token rejections, so callers can branch with errors.Is.
type APIError struct {
	Code     string
	Desc     string
	category error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Desc)
}

// Unwrap returns the error category for errors.Is matching.
func (e *APIError) Unwrap() error {
	return e.category
}

// newAPIError builds an APIError for a vendor response code.
func newAPIError(code, desc string) *APIError {
	category := ErrRequestFailed
	switch code {
	case codeTokenInvalid:
		category = auth.ErrAuthenticationFailed
	case codeDeviceDisconnected:
		category = ErrDeviceDisconnected
	}
	return &APIError{Code: code, Desc: desc, category: category}
}

// NewInitializationError builds the fail-fast error for a missing
// collaborator at setup time.
func NewInitializationError(desc string) *APIError {
	return &APIError{Code: codeInitialization, Desc: desc, category: ErrInitialization}
}

func newRequestError(desc string) *APIError {
	return &APIError{Code: codeRequestFailed, Desc: desc, category: ErrRequestFailed}
}
