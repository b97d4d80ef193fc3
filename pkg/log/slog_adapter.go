package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see session events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("category", event.Category.String()),
	}

	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote_addr", event.RemoteAddr))
	}
	if event.Model != "" {
		attrs = append(attrs, slog.String("model", event.Model))
	}

	// Add type-specific attributes
	switch {
	case event.Chunk != nil:
		attrs = append(attrs,
			slog.Int("chunk_size", event.Chunk.Size),
			slog.Bool("truncated", event.Chunk.Truncated),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Parameter != nil:
		attrs = append(attrs,
			slog.Int("channel", event.Parameter.Channel),
			slog.String("identity", event.Parameter.Identity),
			slog.String("value", event.Parameter.Value),
		)
	case event.Poll != nil:
		attrs = append(attrs,
			slog.Int("batch", event.Poll.Batch),
			slog.Int("requests", event.Poll.Requests),
			slog.Int("bytes", event.Poll.Bytes),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "console", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
