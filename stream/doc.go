// Package stream owns the long-lived subscription to the platform's
// message broker, over which the cloud pushes device-state reports.
//
// One background goroutine per Client runs the connection state
// machine:
//
//	Disconnected -> Connecting -> Subscribed -> (Disconnected | Reconnecting) -> Connecting ...
//
// Before every (re)connect the access token is re-validated through
// the auth.Provider, because tokens routinely expire mid-connection on
// a multi-hour link. Transport failures are absorbed locally: the loop
// waits a fixed backoff and reconnects, without bound, and never
// surfaces an error to the caller — the only externally visible effect
// of an outage is a gap in message delivery.
//
// # Delivery Contract
//
//   - Messages for one device arrive in wire order (ordered dispatch).
//   - Topics that are not exactly "{prefix}/{id}/{device}/report",
//     envelopes without an event, and events outside the allow-list
//     are dropped silently.
//   - After Disconnect returns, no further handler invocation begins;
//     an in-flight invocation completes first.
package stream
