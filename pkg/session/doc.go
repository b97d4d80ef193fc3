// Package session orchestrates a live console connection: it owns the
// TCP transport, drives incoming bytes through the parse/assemble/decode
// pipeline, accumulates per-channel state into a snapshot mirror, and
// manages reconnection with exponential backoff.
//
// # Lifecycle
//
// A session moves through the connection states
//
//	disconnected -> connecting -> connected -> reconnecting(N) -> connecting -> ...
//
// entering a terminal error state when retries are exhausted or the
// requested console model has no registered profile. A manual Connect
// supersedes any pending scheduled retry at any time.
//
// On every transition into connected the pipeline state and the snapshot
// mirror are rebuilt from scratch and a full-state poll is issued:
// values observed before a connectivity gap cannot be trusted. The poll
// is transmitted in small delayed batches to avoid flooding a console's
// shared connection-slot pool; batch size and delay are tunables, not a
// protocol requirement.
//
// The session is read-only telemetry: it never writes parameter values
// to the console, only poll requests.
//
// # Liveness
//
// There is no application-level heartbeat. A console that stops
// responding without closing the socket is not detected until the
// operating system surfaces a transport error.
package session
