// Package log provides structured event logging for the client core.
//
// This package defines the Logger interface and Event types for capturing
// lifecycle events across the client's layers (connection, trust, bridge,
// session). It is separate from operational logging (slog) - event capture
// provides a complete machine-readable trace for debugging and analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/hawser/client.hlog")
//
//	// Both: use MultiLogger
//	cfg.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/hawser/client.hlog"),
//	)
//
// # Event Types
//
// Events carry one payload each:
//   - StateChangeEvent: connection, bridge and session transitions
//   - TrustEvent: host key comparisons and user decisions
//   - TrafficEvent: relay byte accounting
//   - ErrorEventData: errors at any layer
//
// # File Format
//
// Log files use CBOR encoding with .hlog extension. The Reader in this
// package streams and filters recorded events.
package log
