// Package device provides the device registry for the cloud client.
//
// The registry is the authoritative mapping of device identifiers to
// device descriptors, populated from Home.getDeviceList. It resolves
// paired-device relationships, computes each device's network class
// and keepalive interval, and determines online/offline status from
// last-report timestamps.
//
// # Key Types
//
//   - Descriptor: one registered device with its endpoint binding
//   - NetworkClass: communication profile (A, C, D, Hub) driving keepalive
//   - Registry: the lookup table, reloaded wholesale by atomic swap
//   - StateStore: SQLite-backed persistence of last-report snapshots
//
// # Concurrency
//
// Lookups are read-only against an immutable table snapshot. Reload
// swaps the whole table through an atomic pointer, so the streaming
// receive loop never observes a partially populated registry.
package device
