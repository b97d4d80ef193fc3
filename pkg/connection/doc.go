// Package connection provides the connection state model and reconnect
// backoff for a console session.
//
// # Reconnection Strategy
//
// When the transport fails, the session retries with exponential backoff:
// the delay before attempt N is 2^(N-1) seconds (1s, 2s, 4s, ...), capped
// at a maximum, and reset on every successful connection. After
// MaxAttempts consecutive failures the session enters a terminal error
// state and stops retrying; only an explicit connect request leaves it.
//
// There is no jitter: the delay law is part of the session's observable
// contract.
package connection
