// Package snapshot holds the local mirror of live console state.
//
// A Console maps channel indexes to per-channel accumulators. Channel
// entries are created lazily on the first observed parameter and fields
// stay nil until first observed; a field is only ever overwritten by a
// newer decoded value for its identity, never cleared except by a full
// reset. A reconnect discards the whole mirror: state observed before a
// connectivity gap cannot be trusted.
//
// SaveCurrentSnapshot freezes the mirror into a Saved record, encoded as
// CBOR with integer keys so the persistence collaborator receives an
// opaque byte record.
package snapshot
