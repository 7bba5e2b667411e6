// Package client implements the HTTPS request executor for the cloud
// platform API.
//
// Every call is a POST of a BSDP body (method, target device, params)
// to a regional gateway, answered by a BRDP envelope (code, desc,
// method, data, event). The executor injects the bearer token from an
// auth.Provider, enforces a fixed request timeout, validates the
// envelope code and maps vendor codes onto the library error taxonomy.
//
// # Retry Policy
//
// A device-disconnected response (vendor code 000201) is retried once,
// transparently. Every other failure propagates immediately; the caller
// decides what to do with it.
package client
