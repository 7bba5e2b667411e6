// Package logging provides structured logging for Gray Logic Cloud.
//
// It wraps log/slog with configuration-driven handler selection and
// default fields. All library components log through this package so
// that applications embedding the client get a consistent output format.
//
// # Usage
//
//	log := logging.New(cfg.Logging, version)
//	streamLog := log.With("component", "stream")
//	streamLog.Warn("broker connection lost", "error", err)
//
// Components accept a *Logger and fall back to a no-op-free default
// created by Default() when none is supplied.
package logging
