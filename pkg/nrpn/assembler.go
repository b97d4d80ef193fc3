package nrpn

import "github.com/sanctuarysoundapp/mixerlink-go/pkg/midi"

// pending accumulates the four fields of one sequence. Fields may arrive
// in any order; have tracks which are present.
type pending struct {
	pair Pair
	have fieldSet
}

type fieldSet uint8

const (
	haveAddressMSB fieldSet = 1 << iota
	haveAddressLSB
	haveValueMSB
	haveValueLSB

	haveAll = haveAddressMSB | haveAddressLSB | haveValueMSB | haveValueLSB
)

// Assembler reconstructs extended parameter pairs from control change
// messages, tracking an independent pending sequence per channel (0-15).
//
// The state is owned by the Assembler value, never ambient, so a session
// can rebuild it from scratch on reconnect. Not safe for concurrent use;
// the receive loop is its single writer.
type Assembler struct {
	channels [16]*pending
}

// NewAssembler creates an assembler with no pending sequences.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Reset discards all pending sequences on all channels.
func (a *Assembler) Reset() {
	a.channels = [16]*pending{}
}

// Feed consumes one channel voice message and returns any pair it
// completed. Messages outside the control change class are no-ops.
func (a *Assembler) Feed(msg midi.Message) []Pair {
	if msg.Command() != midi.CommandControlChange {
		return nil
	}

	ch := msg.Channel()
	control := msg.Data1
	value := msg.Data2 & dataMask

	switch control {
	case CCAddressMSB:
		// Some consoles send the two address messages swapped. A pending
		// holding only an address LSB is the start of this sequence, not
		// a prior one, so the MSB joins it.
		if p := a.channels[ch]; p != nil && p.have == haveAddressLSB {
			p.pair.AddressMSB = value
			p.have |= haveAddressMSB
			return nil
		}
		// Otherwise a new address MSB restarts accumulation, discarding
		// any incomplete prior sequence on the channel.
		a.channels[ch] = &pending{
			pair: Pair{Channel: ch, AddressMSB: value},
			have: haveAddressMSB,
		}
		return nil

	case CCAddressLSB:
		p := a.channels[ch]
		if p == nil {
			p = &pending{pair: Pair{Channel: ch}}
			a.channels[ch] = p
		}
		p.pair.AddressLSB = value
		p.have |= haveAddressLSB
		return nil

	case CCValueMSB:
		p := a.channels[ch]
		if p == nil {
			p = &pending{pair: Pair{Channel: ch}}
			a.channels[ch] = p
		}
		p.pair.ValueMSB = value
		p.have |= haveValueMSB
		return nil

	case CCValueLSB:
		p := a.channels[ch]
		if p == nil {
			// A value LSB with nothing accumulated cannot complete anything.
			return nil
		}
		p.pair.ValueLSB = value
		p.have |= haveValueLSB

		if p.have != haveAll {
			// Incomplete: the value LSB arrived before all four fields.
			// Keep waiting; a later address MSB will restart cleanly.
			return nil
		}

		pair := p.pair
		a.channels[ch] = nil
		return []Pair{pair}

	default:
		// A foreign control number cannot belong to a well-formed
		// sequence; abort anything partially built on this channel.
		a.channels[ch] = nil
		return nil
	}
}

// FeedAll consumes a batch of messages and concatenates the completed
// pairs, preserving order.
func (a *Assembler) FeedAll(msgs []midi.Message) []Pair {
	var out []Pair
	for _, m := range msgs {
		out = append(out, a.Feed(m)...)
	}
	return out
}
