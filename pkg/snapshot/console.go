package snapshot

import (
	"sort"
	"time"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"
)

// Console is the local mirror of live console state: an ordered mapping
// from channel index to accumulator, plus the console model and capture
// timestamp.
//
// Console is not safe for concurrent use; the session's receive loop is
// its single writer and publishes deep copies.
type Console struct {
	model      profile.Model
	capturedAt time.Time
	channels   map[int]*Channel
}

// New creates an empty mirror for a console model.
func New(model profile.Model) *Console {
	return &Console{
		model:    model,
		channels: make(map[int]*Channel),
	}
}

// Model returns the console model.
func (c *Console) Model() profile.Model { return c.model }

// CapturedAt returns the time of the most recent applied value.
func (c *Console) CapturedAt() time.Time { return c.capturedAt }

// Apply merges one decoded parameter into the mirror, creating the
// channel entry lazily. It reports whether the stored state changed.
func (c *Console) Apply(channel int, id profile.Identity, v profile.Value) bool {
	if id.Kind == profile.KindUnknown {
		return false
	}
	ch, ok := c.channels[channel]
	if !ok {
		ch = &Channel{}
		c.channels[channel] = ch
	}
	if !ch.Apply(id, v) {
		return false
	}
	c.capturedAt = time.Now()
	return true
}

// Channel returns the accumulator for a channel index, or nil if no
// parameter has been observed for it.
func (c *Console) Channel(index int) *Channel {
	return c.channels[index]
}

// ChannelIndexes returns the observed channel indexes in ascending order.
func (c *Console) ChannelIndexes() []int {
	out := make([]int, 0, len(c.channels))
	for i := range c.channels {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of channels with observed state.
func (c *Console) Len() int { return len(c.channels) }

// Reset discards all accumulated channel state. Called on reconnect:
// values observed before a connectivity gap cannot be trusted.
func (c *Console) Reset() {
	c.channels = make(map[int]*Channel)
	c.capturedAt = time.Time{}
}

// Clone returns a deep copy suitable for handing to observers.
func (c *Console) Clone() *Console {
	out := &Console{
		model:      c.model,
		capturedAt: c.capturedAt,
		channels:   make(map[int]*Channel, len(c.channels)),
	}
	for i, ch := range c.channels {
		out.channels[i] = ch.Clone()
	}
	return out
}
