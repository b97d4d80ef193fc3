package profile

import (
	"math"
	"strings"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/nrpn"
)

// SQ address categories (address MSB).
const (
	sqCatGain      byte = 0x20
	sqCatPad       byte = 0x21
	sqCatPhantom   byte = 0x22
	sqCatHPFFreq   byte = 0x23
	sqCatHPFEnable byte = 0x24
	sqCatFader     byte = 0x25
	sqCatMute      byte = 0x26
	sqCatName      byte = 0x27

	sqCatEQFreq   byte = 0x30
	sqCatEQGain   byte = 0x31
	sqCatEQQ      byte = 0x32
	sqCatEQEnable byte = 0x33

	sqCatCompThreshold byte = 0x38
	sqCatCompRatio     byte = 0x39
	sqCatCompAttack    byte = 0x3A
	sqCatCompRelease   byte = 0x3B
)

// SQ wire constants.
const (
	sqChannelCount = 32
	sqEQBandCount  = 4

	// sqMIDIChannel is the console's MIDI channel for parameter traffic.
	sqMIDIChannel = 0

	// sqPollSentinel in the value fields of a request means "report the
	// current value".
	sqPollSentinel uint16 = 0x3FFF

	// sqFullScale is the maximum 14-bit raw value.
	sqFullScale = 16383.0
)

// SQ is the profile for the Allen & Heath SQ family.
//
// Value curves are the SQ's contract and are deliberately not shared with
// any other profile.
type SQ struct{}

var _ Profile = SQ{}

// Model returns ModelSQ.
func (SQ) Model() Model { return ModelSQ }

// DefaultPort returns the SQ's unencrypted MIDI-over-TCP port.
func (SQ) DefaultPort() int { return 51325 }

// TLSPort returns the SQ's TLS-secured alternate port.
func (SQ) TLSPort() int { return 51327 }

// ChannelCount returns the number of addressable input strips.
func (SQ) ChannelCount() int { return sqChannelCount }

// EQBandCount returns the PEQ bands per channel.
func (SQ) EQBandCount() int { return sqEQBandCount }

// DecodeParameter maps an SQ address pair onto a canonical identity.
// Scalar categories put the channel in the address LSB; EQ categories
// pack band and channel as band*ChannelCount+channel.
func (SQ) DecodeParameter(p nrpn.Pair) (int, Identity, bool) {
	lsb := int(p.AddressLSB)

	scalar := func(k Kind) (int, Identity, bool) {
		if lsb >= sqChannelCount {
			return 0, Identity{}, false
		}
		return lsb, Identity{Kind: k}, true
	}
	eq := func(k Kind) (int, Identity, bool) {
		band := lsb / sqChannelCount
		ch := lsb % sqChannelCount
		if band >= sqEQBandCount {
			return 0, Identity{}, false
		}
		return ch, Identity{Kind: k, Band: band}, true
	}

	switch p.AddressMSB {
	case sqCatGain:
		return scalar(KindGain)
	case sqCatPad:
		return scalar(KindPad)
	case sqCatPhantom:
		return scalar(KindPhantom)
	case sqCatHPFFreq:
		return scalar(KindHPFFrequency)
	case sqCatHPFEnable:
		return scalar(KindHPFEnable)
	case sqCatFader:
		return scalar(KindFader)
	case sqCatMute:
		return scalar(KindMute)
	case sqCatName:
		return scalar(KindChannelName)
	case sqCatEQFreq:
		return eq(KindEQFrequency)
	case sqCatEQGain:
		return eq(KindEQGain)
	case sqCatEQQ:
		return eq(KindEQQ)
	case sqCatEQEnable:
		return eq(KindEQEnable)
	case sqCatCompThreshold:
		return scalar(KindCompThreshold)
	case sqCatCompRatio:
		return scalar(KindCompRatio)
	case sqCatCompAttack:
		return scalar(KindCompAttack)
	case sqCatCompRelease:
		return scalar(KindCompRelease)
	default:
		// Unknown category: resolve rather than fail, so newer firmware
		// cannot break ingestion.
		return lsb % sqChannelCount, Unknown(p.AddressMSB, p.AddressLSB), true
	}
}

// ConvertValue applies the SQ value curves.
func (SQ) ConvertValue(raw uint16, id Identity) Value {
	n := float64(raw&0x3FFF) / sqFullScale

	switch id.Kind {
	case KindGain:
		return FloatValue(sqLinearDB(n, -5, 60))
	case KindFader:
		return FloatValue(sqLinearDB(n, -90, 10))
	case KindEQGain:
		return FloatValue(sqLinearDB(n, -15, 15))
	case KindCompThreshold:
		return FloatValue(sqLinearDB(n, -46, 18))
	case KindHPFFrequency:
		return FloatValue(sqExpFreq(n, 20, 2000))
	case KindEQFrequency:
		return FloatValue(sqExpFreq(n, 20, 20000))
	case KindEQQ:
		return FloatValue(0.3 + n*(8.7-0.3))
	case KindCompRatio:
		return FloatValue(sqCompRatio(n))
	case KindCompAttack:
		return FloatValue(sqExpFreq(n, 0.3, 300))
	case KindCompRelease:
		return FloatValue(sqExpFreq(n, 10, 3000))
	case KindPad, KindPhantom, KindHPFEnable, KindMute, KindEQEnable:
		// SQ switches report full or zero scale; coerce at half scale.
		return BoolValue(raw >= 0x2000)
	case KindChannelName:
		return StringValue(sqNameFragment(raw))
	default:
		return RawValue(raw)
	}
}

// BuildChannelPollMessages returns read requests for every scalar
// parameter and every EQ band slot of one channel.
func (SQ) BuildChannelPollMessages(channel int) []nrpn.Pair {
	ch := byte(channel % sqChannelCount)

	pairs := make([]nrpn.Pair, 0, 12+4*sqEQBandCount)
	for _, cat := range []byte{
		sqCatGain, sqCatPad, sqCatPhantom,
		sqCatHPFFreq, sqCatHPFEnable,
		sqCatFader, sqCatMute, sqCatName,
		sqCatCompThreshold, sqCatCompRatio, sqCatCompAttack, sqCatCompRelease,
	} {
		pairs = append(pairs, sqPoll(cat, ch))
	}
	for band := 0; band < sqEQBandCount; band++ {
		slot := byte(band*sqChannelCount) + ch
		pairs = append(pairs,
			sqPoll(sqCatEQFreq, slot),
			sqPoll(sqCatEQGain, slot),
			sqPoll(sqCatEQQ, slot),
			sqPoll(sqCatEQEnable, slot),
		)
	}
	return pairs
}

func sqPoll(category, lsb byte) nrpn.Pair {
	return nrpn.Pair{
		Channel:    sqMIDIChannel,
		AddressMSB: category,
		AddressLSB: lsb,
		ValueMSB:   byte(sqPollSentinel >> 7),
		ValueLSB:   byte(sqPollSentinel & 0x7F),
	}
}

// sqLinearDB maps normalized raw onto a linear dB range.
func sqLinearDB(n, min, max float64) float64 {
	return min + n*(max-min)
}

// sqExpFreq maps normalized raw onto an exponential range, min..max.
func sqExpFreq(n, min, max float64) float64 {
	return min * math.Pow(max/min, n)
}

// sqCompRatio is the SQ's bounded ratio curve: quadratic up to 20:1,
// effectively infinite (limiting) near full scale.
func sqCompRatio(n float64) float64 {
	if n >= 0.98 {
		return math.Inf(1)
	}
	return 1 + 19*n*n
}

// sqNameFragment unpacks two 7-bit ASCII characters from a raw value.
func sqNameFragment(raw uint16) string {
	b := []byte{byte(raw >> 7 & 0x7F), byte(raw & 0x7F)}
	return strings.TrimRight(string(b), "\x00")
}
