// Package log provides structured protocol event logging for console
// sessions.
//
// The engine emits an Event for connection state changes, transport
// chunks, decoded parameters, poll batches, and errors. Applications
// choose where events go by supplying a Logger: SlogAdapter for console
// output during development, FileLogger for a CBOR capture file that can
// be replayed against the decode pipeline, MultiLogger for both.
//
// Logging is always optional: every emitting component accepts a nil
// Logger or NoopLogger.
package log
