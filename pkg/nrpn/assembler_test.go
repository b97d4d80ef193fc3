package nrpn

import (
	"reflect"
	"testing"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/midi"
)

func cc(channel, control, value byte) midi.Message {
	return midi.Message{Status: 0xB0 | channel, Data1: control, Data2: value}
}

func TestAssembler_CanonicalSequence(t *testing.T) {
	a := NewAssembler()

	var got []Pair
	for _, m := range []midi.Message{
		cc(0, 99, 10),
		cc(0, 98, 20),
		cc(0, 6, 1),
		cc(0, 38, 0),
	} {
		got = append(got, a.Feed(m)...)
	}

	want := []Pair{{Channel: 0, AddressMSB: 10, AddressLSB: 20, ValueMSB: 1, ValueLSB: 0}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got[0].Address() != 1300 {
		t.Errorf("Address() = %d, want 1300", got[0].Address())
	}
	if got[0].Value() != 128 {
		t.Errorf("Value() = %d, want 128", got[0].Value())
	}
}

func TestAssembler_AddressOrderSwapped(t *testing.T) {
	a := NewAssembler()

	// LSB-first is a convention some consoles use; it must still emit.
	var got []Pair
	for _, m := range []midi.Message{
		cc(0, 98, 20),
		cc(0, 99, 10),
		cc(0, 6, 1),
		cc(0, 38, 0),
	} {
		got = append(got, a.Feed(m)...)
	}

	if len(got) != 1 {
		t.Fatalf("got %d pairs, want 1", len(got))
	}
	if got[0].Address() != 1300 || got[0].Value() != 128 {
		t.Errorf("got addr=%d val=%d, want 1300/128", got[0].Address(), got[0].Value())
	}
}

func TestAssembler_ForeignControlAborts(t *testing.T) {
	a := NewAssembler()

	var got []Pair
	for _, m := range []midi.Message{
		cc(0, 99, 10),
		cc(0, 98, 20),
		cc(0, 7, 100), // channel volume: not part of any sequence
		cc(0, 6, 1),
		cc(0, 38, 0),
	} {
		got = append(got, a.Feed(m)...)
	}

	if len(got) != 0 {
		t.Fatalf("aborted sequence still emitted: %v", got)
	}

	// A fresh address MSB restarts cleanly.
	for _, m := range []midi.Message{
		cc(0, 99, 10),
		cc(0, 98, 20),
		cc(0, 6, 1),
		cc(0, 38, 0),
	} {
		got = append(got, a.Feed(m)...)
	}
	if len(got) != 1 {
		t.Fatalf("restart after abort failed: %v", got)
	}
}

func TestAssembler_NewAddressMSBRestarts(t *testing.T) {
	a := NewAssembler()

	var got []Pair
	for _, m := range []midi.Message{
		cc(0, 99, 10),
		cc(0, 98, 20),
		cc(0, 99, 11), // restart with a different address
		cc(0, 98, 21),
		cc(0, 6, 0),
		cc(0, 38, 5),
	} {
		got = append(got, a.Feed(m)...)
	}

	want := []Pair{{Channel: 0, AddressMSB: 11, AddressLSB: 21, ValueMSB: 0, ValueLSB: 5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAssembler_PerChannelIndependence(t *testing.T) {
	a := NewAssembler()

	// Interleave two sequences on different channels.
	var got []Pair
	for _, m := range []midi.Message{
		cc(0, 99, 1),
		cc(5, 99, 2),
		cc(0, 98, 10),
		cc(5, 98, 20),
		cc(5, 6, 0),
		cc(0, 6, 0),
		cc(0, 38, 1),
		cc(5, 38, 2),
	} {
		got = append(got, a.Feed(m)...)
	}

	want := []Pair{
		{Channel: 0, AddressMSB: 1, AddressLSB: 10, ValueMSB: 0, ValueLSB: 1},
		{Channel: 5, AddressMSB: 2, AddressLSB: 20, ValueMSB: 0, ValueLSB: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAssembler_ValueLSBWithoutSequence(t *testing.T) {
	a := NewAssembler()

	if got := a.Feed(cc(0, 38, 0)); len(got) != 0 {
		t.Errorf("orphan value LSB emitted a pair: %v", got)
	}
}

func TestAssembler_NonControlChangeIgnored(t *testing.T) {
	a := NewAssembler()

	a.Feed(cc(0, 99, 10))
	a.Feed(cc(0, 98, 20))

	// A note on mid-sequence is outside the control change class: no-op.
	a.Feed(midi.Message{Status: 0x90, Data1: 60, Data2: 100})

	var got []Pair
	got = append(got, a.Feed(cc(0, 6, 1))...)
	got = append(got, a.Feed(cc(0, 38, 0))...)

	if len(got) != 1 || got[0].Address() != 1300 {
		t.Fatalf("sequence disturbed by non-CC message: %v", got)
	}
}

func TestAssembler_Reset(t *testing.T) {
	a := NewAssembler()

	a.Feed(cc(0, 99, 10))
	a.Feed(cc(0, 98, 20))
	a.Feed(cc(0, 6, 1))
	a.Reset()

	if got := a.Feed(cc(0, 38, 0)); len(got) != 0 {
		t.Errorf("pending state survived Reset: %v", got)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	pairs := []Pair{
		NewPair(0, 1300, 128),
		NewPair(3, 0, 0),
		NewPair(15, 0x3FFF, 0x3FFF),
		NewPair(7, 2688, 8191),
	}

	for _, p := range pairs {
		parser := midi.NewStreamParser()
		a := NewAssembler()

		got := a.FeedAll(parser.Feed(Encode(p)))
		if len(got) != 1 {
			t.Fatalf("%v: got %d pairs", p, len(got))
		}
		if got[0] != p {
			t.Errorf("round trip: got %v, want %v", got[0], p)
		}
	}
}

func TestEncode_MasksDataBytes(t *testing.T) {
	p := Pair{Channel: 2, AddressMSB: 0xFF, AddressLSB: 0x80, ValueMSB: 0x81, ValueLSB: 0xC0}
	data := Encode(p)

	if len(data) != EncodedPairSize {
		t.Fatalf("len = %d, want %d", len(data), EncodedPairSize)
	}
	for i, b := range data {
		if i%3 == 0 {
			if b != 0xB2 {
				t.Errorf("byte %d: status = %#x, want 0xB2", i, b)
			}
			continue
		}
		if b&0x80 != 0 {
			t.Errorf("byte %d: high bit set on data byte %#x", i, b)
		}
	}
}

func TestEncodeAll_Concatenates(t *testing.T) {
	ps := []Pair{NewPair(0, 1, 2), NewPair(1, 3, 4)}
	data := EncodeAll(ps)

	if len(data) != 2*EncodedPairSize {
		t.Fatalf("len = %d, want %d", len(data), 2*EncodedPairSize)
	}

	parser := midi.NewStreamParser()
	a := NewAssembler()
	got := a.FeedAll(parser.Feed(data))
	if !reflect.DeepEqual(got, ps) {
		t.Errorf("batch round trip: got %v, want %v", got, ps)
	}
}

func TestNewPair_Masks14Bits(t *testing.T) {
	p := NewPair(0, 0xFFFF, 0xFFFF)
	if p.Address() != 0x3FFF {
		t.Errorf("Address() = %#x, want 0x3FFF", p.Address())
	}
	if p.Value() != 0x3FFF {
		t.Errorf("Value() = %#x, want 0x3FFF", p.Value())
	}
}
