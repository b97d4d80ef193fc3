package snapshot

import "github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"

// EQBand accumulates one PEQ band. Fields are nil until first observed.
type EQBand struct {
	Frequency *float64 `cbor:"1,keyasint,omitempty"`
	Gain      *float64 `cbor:"2,keyasint,omitempty"`
	Q         *float64 `cbor:"3,keyasint,omitempty"`
	Enabled   *bool    `cbor:"4,keyasint,omitempty"`
}

// Channel accumulates the last-known value of every parameter identity
// observed for one console channel. Fields are nil until first observed
// and are only ever overwritten by newer values, never cleared except by
// a full session reset.
type Channel struct {
	Gain           *float64 `cbor:"1,keyasint,omitempty"`
	PadEnabled     *bool    `cbor:"2,keyasint,omitempty"`
	PhantomEnabled *bool    `cbor:"3,keyasint,omitempty"`
	HPFFrequency   *float64 `cbor:"4,keyasint,omitempty"`
	HPFEnabled     *bool    `cbor:"5,keyasint,omitempty"`
	Fader          *float64 `cbor:"6,keyasint,omitempty"`
	Muted          *bool    `cbor:"7,keyasint,omitempty"`
	Name           *string  `cbor:"8,keyasint,omitempty"`

	EQBands []*EQBand `cbor:"9,keyasint,omitempty"`

	CompThreshold *float64 `cbor:"10,keyasint,omitempty"`
	CompRatio     *float64 `cbor:"11,keyasint,omitempty"`
	CompAttack    *float64 `cbor:"12,keyasint,omitempty"`
	CompRelease   *float64 `cbor:"13,keyasint,omitempty"`
}

// Apply merges one decoded value into the channel with last-value-wins
// semantics. It reports whether the stored state changed, so applying
// the same value twice is observably idempotent. Unknown identities are
// ignored.
func (c *Channel) Apply(id profile.Identity, v profile.Value) bool {
	switch id.Kind {
	case profile.KindGain:
		return setFloat(&c.Gain, v.Float)
	case profile.KindPad:
		return setBool(&c.PadEnabled, v.Bool)
	case profile.KindPhantom:
		return setBool(&c.PhantomEnabled, v.Bool)
	case profile.KindHPFFrequency:
		return setFloat(&c.HPFFrequency, v.Float)
	case profile.KindHPFEnable:
		return setBool(&c.HPFEnabled, v.Bool)
	case profile.KindFader:
		return setFloat(&c.Fader, v.Float)
	case profile.KindMute:
		return setBool(&c.Muted, v.Bool)
	case profile.KindChannelName:
		return setString(&c.Name, v.String)
	case profile.KindEQFrequency:
		return setFloat(&c.band(id.Band).Frequency, v.Float)
	case profile.KindEQGain:
		return setFloat(&c.band(id.Band).Gain, v.Float)
	case profile.KindEQQ:
		return setFloat(&c.band(id.Band).Q, v.Float)
	case profile.KindEQEnable:
		return setBool(&c.band(id.Band).Enabled, v.Bool)
	case profile.KindCompThreshold:
		return setFloat(&c.CompThreshold, v.Float)
	case profile.KindCompRatio:
		return setFloat(&c.CompRatio, v.Float)
	case profile.KindCompAttack:
		return setFloat(&c.CompAttack, v.Float)
	case profile.KindCompRelease:
		return setFloat(&c.CompRelease, v.Float)
	default:
		return false
	}
}

// band returns the accumulator for a band index, growing the slice as
// needed.
func (c *Channel) band(i int) *EQBand {
	for len(c.EQBands) <= i {
		c.EQBands = append(c.EQBands, &EQBand{})
	}
	return c.EQBands[i]
}

// Clone returns a deep copy.
func (c *Channel) Clone() *Channel {
	out := &Channel{
		Gain:           copyFloat(c.Gain),
		PadEnabled:     copyBool(c.PadEnabled),
		PhantomEnabled: copyBool(c.PhantomEnabled),
		HPFFrequency:   copyFloat(c.HPFFrequency),
		HPFEnabled:     copyBool(c.HPFEnabled),
		Fader:          copyFloat(c.Fader),
		Muted:          copyBool(c.Muted),
		Name:           copyString(c.Name),
		CompThreshold:  copyFloat(c.CompThreshold),
		CompRatio:      copyFloat(c.CompRatio),
		CompAttack:     copyFloat(c.CompAttack),
		CompRelease:    copyFloat(c.CompRelease),
	}
	for _, b := range c.EQBands {
		out.EQBands = append(out.EQBands, &EQBand{
			Frequency: copyFloat(b.Frequency),
			Gain:      copyFloat(b.Gain),
			Q:         copyFloat(b.Q),
			Enabled:   copyBool(b.Enabled),
		})
	}
	return out
}

func setFloat(dst **float64, v float64) bool {
	if *dst != nil && **dst == v {
		return false
	}
	*dst = &v
	return true
}

func setBool(dst **bool, v bool) bool {
	if *dst != nil && **dst == v {
		return false
	}
	*dst = &v
	return true
}

func setString(dst **string, v string) bool {
	if *dst != nil && **dst == v {
		return false
	}
	*dst = &v
	return true
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
