package session

import (
	"context"
	"time"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/log"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/nrpn"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/transport"
)

// pollAll transmits a full-state poll: read requests covering every
// scalar parameter and EQ band slot of every channel, in small delayed
// batches so the console's shared connection pool is not flooded.
//
// Runs on its own goroutine per connection; ctx is cancelled on
// disconnect, reconnect and teardown. Send errors end the poll quietly,
// the receive loop observes the same failure and drives recovery.
func (s *Session) pollAll(ctx context.Context, conn *transport.Conn, prof profile.Profile) {
	defer s.wg.Done()

	var pairs []nrpn.Pair
	for ch := 0; ch < prof.ChannelCount(); ch++ {
		pairs = append(pairs, prof.BuildChannelPollMessages(ch)...)
	}

	batchSize := s.cfg.PollBatchSize
	if batchSize < 1 {
		batchSize = DefaultPollBatchSize
	}

	for i, batch := 0, 0; i < len(pairs); i, batch = i+batchSize, batch+1 {
		end := i + batchSize
		if end > len(pairs) {
			end = len(pairs)
		}
		data := nrpn.EncodeAll(pairs[i:end])
		if err := conn.Send(data); err != nil {
			return
		}
		s.logEvent(log.Event{
			Direction:  log.DirectionOut,
			Category:   log.CategoryPoll,
			RemoteAddr: conn.RemoteAddr().String(),
			Poll: &log.PollEvent{
				Batch:    batch,
				Requests: end - i,
				Bytes:    len(data),
			},
		})
		if end == len(pairs) {
			return
		}
		timer := time.NewTimer(s.cfg.PollBatchDelay.Duration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
