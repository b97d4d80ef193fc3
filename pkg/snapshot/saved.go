package snapshot

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// encMode is the CBOR encoder mode for saved records. Deterministic
// output so identical snapshots encode identically.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for saved records, lenient for
// forward compatibility with records written by newer versions.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Saved is a frozen snapshot record handed to the persistence
// collaborator. The engine treats it as write-only; it is serialized
// and stored elsewhere.
type Saved struct {
	ID         string           `cbor:"1,keyasint"`
	Name       string           `cbor:"2,keyasint"`
	Model      string           `cbor:"3,keyasint"`
	CapturedAt time.Time        `cbor:"4,keyasint"`
	Channels   map[int]*Channel `cbor:"5,keyasint"`
}

// NewSaved freezes a console mirror under a user-supplied name.
func NewSaved(name string, c *Console) *Saved {
	s := &Saved{
		ID:         uuid.NewString(),
		Name:       name,
		Model:      string(c.Model()),
		CapturedAt: c.CapturedAt(),
		Channels:   make(map[int]*Channel, c.Len()),
	}
	for _, i := range c.ChannelIndexes() {
		s.Channels[i] = c.Channel(i).Clone()
	}
	return s
}

// Encode serializes the record to its opaque CBOR form.
func (s *Saved) Encode() ([]byte, error) {
	data, err := encMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot record: %w", err)
	}
	return data, nil
}

// DecodeSaved deserializes a record produced by Encode.
func DecodeSaved(data []byte) (*Saved, error) {
	var s Saved
	if err := decMode.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot record: %w", err)
	}
	return &s, nil
}
