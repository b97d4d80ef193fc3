// Package nrpn implements the extended parameter layer of the console
// protocol: reassembling 14-bit address/value pairs from their four-message
// control change wire sequence, and serializing pairs back to wire bytes.
//
// # Wire Sequence
//
// A parameter transfer is four control change messages on one channel:
//
//	CC 99  address MSB
//	CC 98  address LSB
//	CC 6   value MSB
//	CC 38  value LSB
//
// The control numbers are a MIDI convention, not vendor-specific. The
// sequence completes when the value LSB arrives with all four fields
// present. Consoles may reorder the two address messages, so the
// assembler accepts the fields in any order.
//
// Assembly state is tracked independently per channel and owned by the
// Assembler value, so a session can discard and rebuild it on reconnect.
package nrpn
