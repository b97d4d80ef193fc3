package nrpn

// EncodedPairSize is the wire size of one encoded pair: four control
// change messages of three bytes each.
const EncodedPairSize = 12

// Encode serializes one pair into its four 3-byte control change groups.
// All four groups carry the channel's status byte explicitly (no running
// status on the outbound path), and every data byte is masked to 7 bits
// so a malformed 14-bit input cannot produce an invalid wire byte.
func Encode(p Pair) []byte {
	status := byte(0xB0) | byte(p.Channel&0x0F)
	return []byte{
		status, CCAddressMSB, p.AddressMSB & dataMask,
		status, CCAddressLSB, p.AddressLSB & dataMask,
		status, CCValueMSB, p.ValueMSB & dataMask,
		status, CCValueLSB, p.ValueLSB & dataMask,
	}
}

// EncodeAll concatenates the encodings of many pairs into one buffer for
// a single transport write.
func EncodeAll(pairs []Pair) []byte {
	out := make([]byte, 0, len(pairs)*EncodedPairSize)
	for _, p := range pairs {
		out = append(out, Encode(p)...)
	}
	return out
}
