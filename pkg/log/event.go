package log

import "time"

// MaxLogChunkDataSize is the maximum chunk data size to include in log
// events (4 KB). Larger chunks are truncated to bound capture file and
// memory growth.
const MaxLogChunkDataSize = 4096

// Event represents a protocol event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the session's connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// RemoteAddr is the console address (host:port).
	RemoteAddr string `cbor:"5,keyasint,omitempty"`

	// Model is the console model the session targets.
	Model string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Chunk       *ChunkEvent       `cbor:"7,keyasint,omitempty"`  // Raw transport bytes
	StateChange *StateChangeEvent `cbor:"8,keyasint,omitempty"`  // Connection state
	Parameter   *ParameterEvent   `cbor:"9,keyasint,omitempty"`  // Decoded parameter
	Poll        *PollEvent        `cbor:"10,keyasint,omitempty"` // Outbound poll batch
	Error       *ErrorEvent       `cbor:"11,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates incoming bytes or a decoded inbound value.
	DirectionIn Direction = 0
	// DirectionOut indicates outgoing bytes.
	DirectionOut Direction = 1
	// DirectionNone is used for events with no flow direction, such as
	// state changes.
	DirectionNone Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryChunk is a raw transport chunk.
	CategoryChunk Category = 0
	// CategoryState is a connection state change.
	CategoryState Category = 1
	// CategoryParameter is a decoded parameter applied to the mirror.
	CategoryParameter Category = 2
	// CategoryPoll is an outbound poll batch.
	CategoryPoll Category = 3
	// CategoryError is an error at any layer.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryChunk:
		return "CHUNK"
	case CategoryState:
		return "STATE"
	case CategoryParameter:
		return "PARAMETER"
	case CategoryPoll:
		return "POLL"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ChunkEvent captures raw transport bytes.
type ChunkEvent struct {
	// Size is the full chunk size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data holds the chunk bytes, possibly truncated.
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated is true when Data was capped at MaxLogChunkDataSize.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewChunkEvent builds a ChunkEvent, truncating oversized data.
func NewChunkEvent(data []byte) *ChunkEvent {
	ev := &ChunkEvent{Size: len(data), Data: data}
	if len(data) > MaxLogChunkDataSize {
		ev.Data = data[:MaxLogChunkDataSize]
		ev.Truncated = true
	}
	return ev
}

// StateChangeEvent captures a connection state transition.
type StateChangeEvent struct {
	OldState string `cbor:"1,keyasint"`
	NewState string `cbor:"2,keyasint"`

	// Reason carries the trigger, such as the transport error text.
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ParameterEvent captures one decoded parameter applied to the mirror.
type ParameterEvent struct {
	Channel  int    `cbor:"1,keyasint"`
	Identity string `cbor:"2,keyasint"`
	Value    string `cbor:"3,keyasint,omitempty"`
}

// PollEvent captures one outbound poll batch.
type PollEvent struct {
	// Batch is the zero-based batch number within a full-state poll.
	Batch int `cbor:"1,keyasint"`

	// Requests is the number of read requests in the batch.
	Requests int `cbor:"2,keyasint"`

	// Bytes is the encoded batch size.
	Bytes int `cbor:"3,keyasint"`
}

// ErrorEvent captures an error at any layer.
type ErrorEvent struct {
	Message string `cbor:"1,keyasint"`
	Context string `cbor:"2,keyasint,omitempty"`
}
