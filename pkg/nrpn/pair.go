package nrpn

import "fmt"

// Control numbers used for extended parameter transfer.
const (
	// CCAddressMSB carries bits 7-13 of the parameter address.
	CCAddressMSB byte = 99

	// CCAddressLSB carries bits 0-6 of the parameter address.
	CCAddressLSB byte = 98

	// CCValueMSB carries bits 7-13 of the parameter value.
	CCValueMSB byte = 6

	// CCValueLSB carries bits 0-6 of the parameter value.
	CCValueLSB byte = 38
)

// dataMask clears the high bit so a byte is always a valid data byte.
const dataMask = 0x7F

// Pair is one complete extended parameter address/value pair on one
// channel. Pairs are transient: they live only inside a pipeline pass.
type Pair struct {
	Channel    int
	AddressMSB byte
	AddressLSB byte
	ValueMSB   byte
	ValueLSB   byte
}

// NewPair builds a pair from 14-bit address and value, masking each
// component to 7 bits.
func NewPair(channel int, address, value uint16) Pair {
	return Pair{
		Channel:    channel & 0x0F,
		AddressMSB: byte(address>>7) & dataMask,
		AddressLSB: byte(address) & dataMask,
		ValueMSB:   byte(value>>7) & dataMask,
		ValueLSB:   byte(value) & dataMask,
	}
}

// Address returns the combined 14-bit parameter address.
func (p Pair) Address() uint16 {
	return uint16(p.AddressMSB&dataMask)<<7 | uint16(p.AddressLSB&dataMask)
}

// Value returns the combined 14-bit parameter value.
func (p Pair) Value() uint16 {
	return uint16(p.ValueMSB&dataMask)<<7 | uint16(p.ValueLSB&dataMask)
}

// String formats the pair for diagnostics.
func (p Pair) String() string {
	return fmt.Sprintf("ch=%d addr=%d(%d/%d) val=%d(%d/%d)",
		p.Channel, p.Address(), p.AddressMSB, p.AddressLSB,
		p.Value(), p.ValueMSB, p.ValueLSB)
}
