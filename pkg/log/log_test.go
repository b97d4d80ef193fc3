package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func sampleEvent() Event {
	return Event{
		Timestamp:    time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.UTC),
		ConnectionID: "7f9c1d2e-0000-4000-8000-000000000001",
		Direction:    DirectionIn,
		Category:     CategoryChunk,
		RemoteAddr:   "192.168.1.50:51325",
		Model:        "sq",
		Chunk:        NewChunkEvent([]byte{0xB0, 99, 10}),
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	ev := sampleEvent()

	data, err := EncodeEvent(ev)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}

	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if got.ConnectionID != ev.ConnectionID {
		t.Errorf("ConnectionID = %q, want %q", got.ConnectionID, ev.ConnectionID)
	}
	if got.Category != CategoryChunk {
		t.Errorf("Category = %v, want CategoryChunk", got.Category)
	}
	if got.Chunk == nil || got.Chunk.Size != 3 {
		t.Errorf("Chunk = %+v, want size 3", got.Chunk)
	}
	if !got.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("Timestamp = %v, want %v (nanosecond precision)", got.Timestamp, ev.Timestamp)
	}
}

func TestNewChunkEvent_Truncation(t *testing.T) {
	big := make([]byte, MaxLogChunkDataSize+100)
	ev := NewChunkEvent(big)

	if ev.Size != len(big) {
		t.Errorf("Size = %d, want %d", ev.Size, len(big))
	}
	if len(ev.Data) != MaxLogChunkDataSize {
		t.Errorf("len(Data) = %d, want %d", len(ev.Data), MaxLogChunkDataSize)
	}
	if !ev.Truncated {
		t.Error("Truncated = false, want true")
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.cbor")

	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	fl.Log(sampleEvent())
	fl.Log(sampleEvent())

	if err := fl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Close is idempotent, and logging after close is ignored.
	if err := fl.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	fl.Log(sampleEvent())

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	dec := NewDecoder(f)
	count := 0
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("decoded %d events, want 2", count)
	}
}

type capturingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (l *capturingLogger) Log(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func TestMultiLogger(t *testing.T) {
	a := &capturingLogger{}
	b := &capturingLogger{}

	ml := NewMultiLogger(a, b, NoopLogger{})
	ml.Log(sampleEvent())

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("events: a=%d b=%d, want 1 each", len(a.events), len(b.events))
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	sl := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	adapter := NewSlogAdapter(sl)
	adapter.Log(Event{
		Direction: DirectionNone,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			OldState: "CONNECTING",
			NewState: "CONNECTED",
		},
	})

	out := buf.String()
	if !bytes.Contains([]byte(out), []byte("CONNECTED")) {
		t.Errorf("slog output missing state: %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("category=STATE")) {
		t.Errorf("slog output missing category: %q", out)
	}
}
