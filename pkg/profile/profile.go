package profile

import (
	"errors"
	"fmt"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/nrpn"
)

// Profile errors.
var (
	// ErrUnsupportedModel indicates no profile is registered for a
	// console model. Connecting with such a model is a configuration
	// error and must not produce a connection attempt.
	ErrUnsupportedModel = errors.New("unsupported console model")
)

// Model identifies a console family/model.
type Model string

// Supported console models.
const (
	// ModelSQ is the Allen & Heath SQ family.
	ModelSQ Model = "sq"

	// ModelQu is the Allen & Heath Qu family.
	ModelQu Model = "qu"
)

// String returns the model identifier.
func (m Model) String() string { return string(m) }

// Profile maps one console family's extended parameter dialect onto
// canonical identities and engineering units. Implementations are
// stateless and safe for concurrent use.
type Profile interface {
	// Model returns the console model this profile serves.
	Model() Model

	// DefaultPort returns the console's default unencrypted TCP port.
	DefaultPort() int

	// TLSPort returns the console's TLS-secured alternate port.
	TLSPort() int

	// ChannelCount returns the number of addressable input channels.
	ChannelCount() int

	// EQBandCount returns the number of PEQ bands per channel.
	EQBandCount() int

	// DecodeParameter maps a vendor address/value pair to a console
	// channel index and canonical identity. An unrecognized address
	// category resolves to an unknown identity, never to failure; the
	// boolean is false only when the pair is entirely outside the
	// vendor's parameter address space.
	DecodeParameter(p nrpn.Pair) (channel int, id Identity, ok bool)

	// ConvertValue translates a raw 14-bit value through the vendor
	// curve for the identity.
	ConvertValue(raw uint16, id Identity) Value

	// BuildChannelPollMessages returns the ordered read requests that
	// cover every scalar parameter and every EQ band slot of one
	// channel. Value fields carry the vendor's poll sentinel.
	BuildChannelPollMessages(channel int) []nrpn.Pair
}

// registry is the exhaustive model-to-profile mapping. Closed by design:
// profiles are compiled in, not discovered at runtime.
var registry = map[Model]Profile{
	ModelSQ: SQ{},
	ModelQu: Qu{},
}

// ForModel returns the profile registered for the model, or
// ErrUnsupportedModel.
func ForModel(m Model) (Profile, error) {
	p, ok := registry[m]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, m)
	}
	return p, nil
}

// Models returns the registered console models.
func Models() []Model {
	out := make([]Model, 0, len(registry))
	for m := range registry {
		out = append(out, m)
	}
	return out
}
