// Package home is the top-level orchestrator of a platform session.
//
// A Session wires together the library's collaborators from one
// configuration: the token manager, the request executor, the device
// registry and the streaming subscription. Setup runs the session
// bring-up sequence
//
//	authenticate -> fetch home info -> load device registry -> subscribe
//
// and from then on every accepted broker report is resolved and handed
// to the caller's Listener:
//
//	session, err := home.NewSession(cfg)
//	...
//	err = session.Setup(ctx, listener)
//	...
//	defer session.Close()
//
// # Dispatch Contract
//
//   - Reports for one device reach the listener in wire order.
//   - A report from a device with a paired sibling is delivered twice:
//     the paired device receives the state sub-object first, then the
//     reporting device receives the full payload, both before the next
//     report is processed.
//   - Reports from devices absent from the registry are dropped.
//   - Resolution failures are logged and the report skipped; they never
//     terminate the session.
//
// The listener is invoked from the subscription's receive goroutine, so
// it must not block for long. After Unload returns no further listener
// invocation begins.
package home
