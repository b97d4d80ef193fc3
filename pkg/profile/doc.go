// Package profile maps vendor-specific extended parameter addressing onto
// canonical parameter identities and engineering-unit values.
//
// Each supported console family implements the Profile interface once:
// the address layout (which address MSB category codes exist, how EQ band
// slots are packed into the address LSB) and the value curves (how a raw
// 14-bit value becomes dB, Hz, a ratio, or a switch) are locked per-vendor
// contracts. Two vendors are never allowed to share a curve, even where
// the formulas happen to look similar, because the exponents and offsets
// differ for nominally the same physical parameter.
//
// An unrecognized address category still decodes, to an unknown identity
// carrying the raw address bytes, so unexpected device firmware cannot
// break ingestion.
//
// Profiles are selected through an exhaustive console-model registry; see
// ForModel.
package profile
