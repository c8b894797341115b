// Package log provides structured protocol capture for motorlink.
//
// This package defines the Logger interface and Event types for recording
// what crosses the UI/worker boundary and how device sessions change state.
// It is separate from operational logging (slog): protocol capture is a
// complete machine-readable trace for debugging and analysis.
//
// # Basic Usage
//
//	// Development: mirror events to the console
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// Production: append to a binary capture file
//	logger, _ := log.NewFileLogger("/var/log/motorlink/ui.mlog")
//
//	// Both
//	logger := log.NewMultiLogger(console, file)
//
// # Event Types
//
// Events are captured at three layers:
//   - Transport: raw frame sizes (FrameEvent)
//   - Wire: decoded envelopes (MessageEvent)
//   - Service: session and resource state (StateChangeEvent, ErrorEventData)
//
// # File Format
//
// Capture files are a sequence of CBOR-encoded events with the .mlog
// extension. Reader iterates them with optional filtering.
package log
