package midi

// Status byte boundaries.
const (
	// statusThreshold separates data bytes (< 0x80) from status bytes.
	statusThreshold = 0x80

	// systemStatusBase is the first system status byte. Everything below
	// it is a channel voice status.
	systemStatusBase = 0xF0

	// realTimeBase is the first system real-time byte. Real-time bytes
	// may appear anywhere in the stream, including inside a message.
	realTimeBase = 0xF8

	// sysExStart begins a System Exclusive block.
	sysExStart = 0xF0

	// sysExEnd terminates a System Exclusive block.
	sysExEnd = 0xF7
)

// StreamParser converts incoming byte chunks into channel voice messages.
// It keeps running status, a partial message buffer, and SysEx discard
// mode across calls, so chunks may split messages at any byte boundary.
//
// StreamParser is not safe for concurrent use; the session's receive loop
// is its single writer.
type StreamParser struct {
	runningStatus byte
	pending       Message
	pendingCount  int  // data bytes collected so far, -1 when no partial
	inSysEx       bool // discarding until 0xF7
}

// NewStreamParser creates a parser with no running status.
func NewStreamParser() *StreamParser {
	p := &StreamParser{}
	p.Reset()
	return p
}

// Reset clears running status, any partial message, and SysEx mode.
// Called by the session whenever a connection is (re)established.
func (p *StreamParser) Reset() {
	p.runningStatus = 0
	p.pending = Message{}
	p.pendingCount = -1
	p.inSysEx = false
}

// Feed consumes one chunk and returns the messages completed by it,
// possibly none. Feed never fails: unparseable bytes are dropped.
func (p *StreamParser) Feed(chunk []byte) []Message {
	var out []Message
	for _, b := range chunk {
		if m, ok := p.feedByte(b); ok {
			out = append(out, m)
		}
	}
	return out
}

// feedByte advances the state machine by one byte and reports a completed
// message, if any.
func (p *StreamParser) feedByte(b byte) (Message, bool) {
	// Real-time bytes are transparent: no state is touched, not even
	// SysEx discard mode.
	if b >= realTimeBase {
		return Message{}, false
	}

	if p.inSysEx {
		if b == sysExEnd {
			p.inSysEx = false
		}
		// Everything inside the block is discarded.
		return Message{}, false
	}

	if b >= statusThreshold {
		return p.feedStatus(b)
	}
	return p.feedData(b)
}

func (p *StreamParser) feedStatus(b byte) (Message, bool) {
	if b >= systemStatusBase {
		if b == sysExStart {
			p.inSysEx = true
		}
		// System common (0xF1-0xF6) and SysEx boundaries cancel running
		// status and drop any partial message.
		p.runningStatus = 0
		p.pendingCount = -1
		return Message{}, false
	}

	// Channel voice status: becomes the running status and opens a new
	// partial message, abandoning any incomplete one.
	p.runningStatus = b
	p.pending = Message{Status: b}
	p.pendingCount = 0
	return Message{}, false
}

func (p *StreamParser) feedData(b byte) (Message, bool) {
	if p.pendingCount < 0 {
		if p.runningStatus == 0 {
			// Orphan data byte, likely the tail of a message we joined
			// mid-stream. Drop it and wait for a status byte.
			return Message{}, false
		}
		// Running status reuse: the peer omitted the repeated status byte.
		p.pending = Message{Status: p.runningStatus}
		p.pendingCount = 0
	}

	switch p.pendingCount {
	case 0:
		p.pending.Data1 = b
	case 1:
		p.pending.Data2 = b
	}
	p.pendingCount++

	if p.pendingCount == Command(p.pending.Status&0xF0).DataLength() {
		m := p.pending
		p.pendingCount = -1
		return m, true
	}
	return Message{}, false
}
