package auth

import "errors"

// Domain-specific errors for authentication.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAuthenticationFailed is returned when the token endpoint rejects
	// the credentials, or when the API reports the access token invalid.
	ErrAuthenticationFailed = errors.New("auth: authentication failed")
)
