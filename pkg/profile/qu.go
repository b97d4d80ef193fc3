package profile

import (
	"math"
	"strings"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/nrpn"
)

// Qu address categories (address MSB). The Qu puts its strip parameters
// in a different block than the SQ.
const (
	quCatGain      byte = 0x50
	quCatPad       byte = 0x51
	quCatPhantom   byte = 0x52
	quCatHPFFreq   byte = 0x53
	quCatHPFEnable byte = 0x54
	quCatFader     byte = 0x55
	quCatMute      byte = 0x56
	quCatName      byte = 0x57

	quCatEQFreq   byte = 0x60
	quCatEQGain   byte = 0x61
	quCatEQQ      byte = 0x62
	quCatEQEnable byte = 0x63

	quCatCompThreshold byte = 0x68
	quCatCompRatio     byte = 0x69
	quCatCompAttack    byte = 0x6A
	quCatCompRelease   byte = 0x6B
)

// Qu wire constants.
const (
	quChannelCount = 16
	quEQBandCount  = 4

	quMIDIChannel = 0

	// quPollSentinel in the value fields of a request means "report the
	// current value". Differs from the SQ sentinel.
	quPollSentinel uint16 = 0x2000

	quFullScale = 16383.0
)

// Qu is the profile for the Allen & Heath Qu family.
//
// The Qu's curves use different offsets and exponents than the SQ even
// where the parameter is nominally the same; the two contracts must stay
// independent.
type Qu struct{}

var _ Profile = Qu{}

// Model returns ModelQu.
func (Qu) Model() Model { return ModelQu }

// DefaultPort returns the Qu's unencrypted MIDI-over-TCP port.
func (Qu) DefaultPort() int { return 51325 }

// TLSPort returns the Qu's TLS-secured alternate port.
func (Qu) TLSPort() int { return 51327 }

// ChannelCount returns the number of addressable input strips.
func (Qu) ChannelCount() int { return quChannelCount }

// EQBandCount returns the PEQ bands per channel.
func (Qu) EQBandCount() int { return quEQBandCount }

// DecodeParameter maps a Qu address pair onto a canonical identity.
func (Qu) DecodeParameter(p nrpn.Pair) (int, Identity, bool) {
	lsb := int(p.AddressLSB)

	scalar := func(k Kind) (int, Identity, bool) {
		if lsb >= quChannelCount {
			return 0, Identity{}, false
		}
		return lsb, Identity{Kind: k}, true
	}
	eq := func(k Kind) (int, Identity, bool) {
		band := lsb / quChannelCount
		ch := lsb % quChannelCount
		if band >= quEQBandCount {
			return 0, Identity{}, false
		}
		return ch, Identity{Kind: k, Band: band}, true
	}

	switch p.AddressMSB {
	case quCatGain:
		return scalar(KindGain)
	case quCatPad:
		return scalar(KindPad)
	case quCatPhantom:
		return scalar(KindPhantom)
	case quCatHPFFreq:
		return scalar(KindHPFFrequency)
	case quCatHPFEnable:
		return scalar(KindHPFEnable)
	case quCatFader:
		return scalar(KindFader)
	case quCatMute:
		return scalar(KindMute)
	case quCatName:
		return scalar(KindChannelName)
	case quCatEQFreq:
		return eq(KindEQFrequency)
	case quCatEQGain:
		return eq(KindEQGain)
	case quCatEQQ:
		return eq(KindEQQ)
	case quCatEQEnable:
		return eq(KindEQEnable)
	case quCatCompThreshold:
		return scalar(KindCompThreshold)
	case quCatCompRatio:
		return scalar(KindCompRatio)
	case quCatCompAttack:
		return scalar(KindCompAttack)
	case quCatCompRelease:
		return scalar(KindCompRelease)
	default:
		return lsb % quChannelCount, Unknown(p.AddressMSB, p.AddressLSB), true
	}
}

// ConvertValue applies the Qu value curves.
func (Qu) ConvertValue(raw uint16, id Identity) Value {
	n := float64(raw&0x3FFF) / quFullScale

	switch id.Kind {
	case KindGain:
		return FloatValue(quLinearDB(n, 0, 60))
	case KindFader:
		return FloatValue(quLinearDB(n, -128, 10))
	case KindEQGain:
		return FloatValue(quLinearDB(n, -20, 20))
	case KindCompThreshold:
		return FloatValue(quLinearDB(n, -40, 20))
	case KindHPFFrequency:
		return FloatValue(quExpCurve(n, 30, 300))
	case KindEQFrequency:
		return FloatValue(quExpCurve(n, 25, 18000))
	case KindEQQ:
		// The Qu's Q sweep is exponential, unlike the SQ's linear one.
		return FloatValue(quExpCurve(n, 0.5, 9.0))
	case KindCompRatio:
		return FloatValue(quCompRatio(n))
	case KindCompAttack:
		return FloatValue(quExpCurve(n, 0.5, 200))
	case KindCompRelease:
		return FloatValue(quExpCurve(n, 25, 2500))
	case KindPad, KindPhantom, KindHPFEnable, KindMute, KindEQEnable:
		// Qu switches report zero or non-zero.
		return BoolValue(raw != 0)
	case KindChannelName:
		return StringValue(quNameFragment(raw))
	default:
		return RawValue(raw)
	}
}

// BuildChannelPollMessages returns read requests for every scalar
// parameter and every EQ band slot of one channel.
func (Qu) BuildChannelPollMessages(channel int) []nrpn.Pair {
	ch := byte(channel % quChannelCount)

	pairs := make([]nrpn.Pair, 0, 12+4*quEQBandCount)
	for _, cat := range []byte{
		quCatGain, quCatPad, quCatPhantom,
		quCatHPFFreq, quCatHPFEnable,
		quCatFader, quCatMute, quCatName,
		quCatCompThreshold, quCatCompRatio, quCatCompAttack, quCatCompRelease,
	} {
		pairs = append(pairs, quPoll(cat, ch))
	}
	for band := 0; band < quEQBandCount; band++ {
		slot := byte(band*quChannelCount) + ch
		pairs = append(pairs,
			quPoll(quCatEQFreq, slot),
			quPoll(quCatEQGain, slot),
			quPoll(quCatEQQ, slot),
			quPoll(quCatEQEnable, slot),
		)
	}
	return pairs
}

func quPoll(category, lsb byte) nrpn.Pair {
	return nrpn.Pair{
		Channel:    quMIDIChannel,
		AddressMSB: category,
		AddressLSB: lsb,
		ValueMSB:   byte(quPollSentinel >> 7),
		ValueLSB:   byte(quPollSentinel & 0x7F),
	}
}

// quLinearDB maps normalized raw onto the Qu's linear dB ranges.
func quLinearDB(n, min, max float64) float64 {
	return min + n*(max-min)
}

// quExpCurve maps normalized raw onto the Qu's exponential sweeps.
func quExpCurve(n, min, max float64) float64 {
	return min * math.Pow(max/min, n)
}

// quCompRatio is the Qu's bounded ratio curve: a power-law sweep capped
// at effectively infinite near full scale. The knee differs from the SQ.
func quCompRatio(n float64) float64 {
	if n >= 0.96 {
		return math.Inf(1)
	}
	return 1 + 14*math.Pow(n, 1.5)
}

// quNameFragment unpacks two 7-bit ASCII characters from a raw value.
func quNameFragment(raw uint16) string {
	b := []byte{byte(raw >> 7 & 0x7F), byte(raw & 0x7F)}
	return strings.TrimRight(string(b), "\x00")
}
