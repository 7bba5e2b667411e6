// Package resolve normalizes heterogeneous vendor payloads into the
// uniform per-device event model.
//
// Every function here is a pure transformation: given a raw state
// payload and, where needed, the device's model or calibration
// attributes, it rewrites vendor-specific encodings (key bitmasks,
// scaled integers, device-family unit factors) into physical values.
// Missing optional fields default rather than error; the dispatcher
// decides what to do with payloads that cannot be resolved at all.
package resolve
