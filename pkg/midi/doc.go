// Package midi implements the byte-stream layer of the console protocol:
// converting an arbitrary sequence of TCP chunks into discrete channel
// voice messages.
//
// The stream is unframed. Message boundaries depend entirely on status
// bytes and the running status convention, and a message may straddle any
// chunk boundary the network produces. StreamParser is therefore an
// explicit state machine that carries running status and a partial message
// buffer across Feed calls.
//
// # Stream Rules
//
//   - Real-time bytes (>= 0xF8) are discarded without touching any state.
//   - A System Exclusive prefix (0xF0) enters a discard mode that swallows
//     everything up to the 0xF7 terminator.
//   - System common bytes (0xF1-0xF6) reset running status and any partial
//     message.
//   - A channel voice status byte (< 0xF0) replaces the running status and
//     starts a new message.
//   - A data byte with no partial message but a known running status
//     starts a new message under that status (running status reuse).
//   - A data byte with neither is dropped, which resynchronizes the parser
//     after joining a stream mid-message.
//
// Parsing is total: any byte sequence is accepted and never produces an
// error.
package midi
