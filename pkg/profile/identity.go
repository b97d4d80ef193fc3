package profile

import (
	"fmt"
	"strconv"
)

// Kind enumerates the closed set of canonical parameter kinds.
type Kind uint8

const (
	// KindUnknown is the catch-all for unrecognized vendor addresses.
	// The identity carries the raw address bytes.
	KindUnknown Kind = iota

	// KindGain is the preamp gain in dB.
	KindGain

	// KindPad is the input pad switch.
	KindPad

	// KindPhantom is the phantom power switch.
	KindPhantom

	// KindHPFFrequency is the high-pass filter corner frequency in Hz.
	KindHPFFrequency

	// KindHPFEnable is the high-pass filter switch.
	KindHPFEnable

	// KindFader is the channel fader level in dB.
	KindFader

	// KindMute is the channel mute switch.
	KindMute

	// KindChannelName is a fragment of the channel name.
	KindChannelName

	// KindEQFrequency is a PEQ band center frequency in Hz.
	KindEQFrequency

	// KindEQGain is a PEQ band gain in dB.
	KindEQGain

	// KindEQQ is a PEQ band quality factor.
	KindEQQ

	// KindEQEnable is a PEQ band switch.
	KindEQEnable

	// KindCompThreshold is the compressor threshold in dB.
	KindCompThreshold

	// KindCompRatio is the compressor ratio (n:1, +Inf for limiting).
	KindCompRatio

	// KindCompAttack is the compressor attack time in ms.
	KindCompAttack

	// KindCompRelease is the compressor release time in ms.
	KindCompRelease
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindGain:
		return "gain"
	case KindPad:
		return "pad"
	case KindPhantom:
		return "phantom"
	case KindHPFFrequency:
		return "hpfFrequency"
	case KindHPFEnable:
		return "hpfEnable"
	case KindFader:
		return "fader"
	case KindMute:
		return "mute"
	case KindChannelName:
		return "channelName"
	case KindEQFrequency:
		return "eqFrequency"
	case KindEQGain:
		return "eqGain"
	case KindEQQ:
		return "eqQ"
	case KindEQEnable:
		return "eqEnable"
	case KindCompThreshold:
		return "compThreshold"
	case KindCompRatio:
		return "compRatio"
	case KindCompAttack:
		return "compAttack"
	case KindCompRelease:
		return "compRelease"
	default:
		return "invalid"
	}
}

// IsEQ reports whether the kind is addressed per PEQ band.
func (k Kind) IsEQ() bool {
	switch k {
	case KindEQFrequency, KindEQGain, KindEQQ, KindEQEnable:
		return true
	default:
		return false
	}
}

// Identity is the canonical identity of one console parameter. Band is
// meaningful only for EQ kinds; RawMSB/RawLSB only for KindUnknown.
type Identity struct {
	Kind Kind

	// Band is the zero-based PEQ band index for EQ kinds.
	Band int

	// RawMSB and RawLSB preserve the vendor address bytes when the
	// category was not recognized.
	RawMSB byte
	RawLSB byte
}

// Unknown builds the catch-all identity for an unrecognized address.
func Unknown(rawMSB, rawLSB byte) Identity {
	return Identity{Kind: KindUnknown, RawMSB: rawMSB, RawLSB: rawLSB}
}

// String formats the identity for diagnostics.
func (id Identity) String() string {
	switch {
	case id.Kind == KindUnknown:
		return fmt.Sprintf("unknown(%d/%d)", id.RawMSB, id.RawLSB)
	case id.Kind.IsEQ():
		return fmt.Sprintf("%s[band %d]", id.Kind, id.Band)
	default:
		return id.Kind.String()
	}
}

// ValueType discriminates the Value union.
type ValueType uint8

const (
	// ValueRaw carries the untranslated 14-bit value. Used for unknown
	// identities.
	ValueRaw ValueType = iota

	// ValueFloat carries an engineering-unit number (dB, Hz, ms, ratio).
	ValueFloat

	// ValueBool carries a switch state.
	ValueBool

	// ValueString carries a channel name fragment.
	ValueString
)

// Value is the engineering-unit result of converting a raw 14-bit wire
// value through a vendor curve.
type Value struct {
	Type   ValueType
	Float  float64
	Bool   bool
	String string
	Raw    uint16
}

// FloatValue wraps an engineering-unit number.
func FloatValue(f float64) Value { return Value{Type: ValueFloat, Float: f} }

// BoolValue wraps a switch state.
func BoolValue(b bool) Value { return Value{Type: ValueBool, Bool: b} }

// StringValue wraps a name fragment.
func StringValue(s string) Value { return Value{Type: ValueString, String: s} }

// RawValue wraps an untranslated wire value.
func RawValue(r uint16) Value { return Value{Type: ValueRaw, Raw: r} }

// Format renders the value for diagnostics.
func (v Value) Format() string {
	switch v.Type {
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueString:
		return strconv.Quote(v.String)
	default:
		return fmt.Sprintf("raw(%d)", v.Raw)
	}
}
