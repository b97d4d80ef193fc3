package mixerlink_test

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/connection"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/nrpn"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/session"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/snapshot"
)

// testConsole is an in-process console: a real TCP listener that drains
// poll traffic and pushes parameter byte streams to whoever connects.
type testConsole struct {
	listener net.Listener

	mu    sync.Mutex
	conns []net.Conn
}

func startTestConsole(t *testing.T) *testConsole {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	c := &testConsole{listener: l}
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			c.mu.Lock()
			c.conns = append(c.conns, conn)
			c.mu.Unlock()
			go io.Copy(io.Discard, conn)
		}
	}()
	return c
}

func (c *testConsole) addr() (string, int) {
	a := c.listener.Addr().(*net.TCPAddr)
	return a.IP.String(), a.Port
}

func (c *testConsole) current(t *testing.T) net.Conn {
	t.Helper()
	var conn net.Conn
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if len(c.conns) == 0 {
			return false
		}
		conn = c.conns[len(c.conns)-1]
		return true
	}, 2*time.Second, time.Millisecond)
	return conn
}

func (c *testConsole) connCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns)
}

// write pushes bytes to the connected session, split into deliberately
// awkward chunks to exercise chunk-boundary independence.
func (c *testConsole) write(t *testing.T, data []byte) {
	t.Helper()
	conn := c.current(t)
	for len(data) > 0 {
		n := 3
		if n > len(data) {
			n = len(data)
		}
		_, err := conn.Write(data[:n])
		require.NoError(t, err)
		data = data[n:]
		time.Sleep(time.Millisecond)
	}
}

func testSessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.PollBatchDelay = session.Duration{}
	cfg.BackoffInitial = session.Duration{Duration: 5 * time.Millisecond}
	cfg.BackoffMax = session.Duration{Duration: 20 * time.Millisecond}
	cfg.BackoffMaxAttempts = 5
	return cfg
}

func connectAndWait(t *testing.T, s *session.Session, host string, port int, model profile.Model) {
	t.Helper()
	require.NoError(t, s.Connect(context.Background(), host, port, model))
	require.Eventually(t, func() bool {
		return s.State().Phase == connection.PhaseConnected
	}, 5*time.Second, time.Millisecond)
}

func waitForSnapshot(t *testing.T, s *session.Session, cond func(*snapshot.Console) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap != nil && cond(snap)
	}, 5*time.Second, time.Millisecond)
}

func TestEndToEndMirror(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	console := startTestConsole(t)
	host, port := console.addr()

	s := session.New(testSessionConfig())
	t.Cleanup(s.Close)

	connectAndWait(t, s, host, port, profile.ModelSQ)

	// One update per layer of the pipeline, interleaved in a single
	// stream: a plain encoded pair, a running-status sequence and an EQ
	// band parameter with the packed band/channel address.
	var stream []byte
	// Fader channel 3 at full scale (+10 dB).
	stream = append(stream, nrpn.Encode(nrpn.NewPair(0, uint16(0x25)<<7|2, 16383))...)
	// Mute channel 1, running status after the first status byte.
	stream = append(stream,
		0xB0, 99, 0x26,
		98, 0,
		6, 0x7F,
		38, 0x7F,
	)
	// EQ band 2 gain for channel 3 at full scale (+15 dB).
	stream = append(stream, nrpn.Encode(nrpn.NewPair(0, uint16(0x31)<<7|(1*32+2), 16383))...)

	console.write(t, stream)

	waitForSnapshot(t, s, func(snap *snapshot.Console) bool {
		ch3 := snap.Channel(2)
		ch1 := snap.Channel(0)
		return ch3 != nil && ch1 != nil &&
			ch3.Fader != nil && ch1.Muted != nil && len(ch3.EQBands) >= 2
	})

	snap := s.Snapshot()
	ch3 := snap.Channel(2)
	assert.Equal(t, 10.0, *ch3.Fader)
	assert.True(t, *snap.Channel(0).Muted)
	require.NotNil(t, ch3.EQBands[1])
	require.NotNil(t, ch3.EQBands[1].Gain)
	assert.Equal(t, 15.0, *ch3.EQBands[1].Gain)
}

func TestEndToEndReconnect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	console := startTestConsole(t)
	host, port := console.addr()

	s := session.New(testSessionConfig())
	t.Cleanup(s.Close)

	var mu sync.Mutex
	var phases []connection.Phase
	s.OnStateChange(func(st connection.State) {
		mu.Lock()
		phases = append(phases, st.Phase)
		mu.Unlock()
	})

	connectAndWait(t, s, host, port, profile.ModelSQ)

	console.write(t, nrpn.Encode(nrpn.NewPair(0, uint16(0x26)<<7|4, 0x3000)))
	waitForSnapshot(t, s, func(snap *snapshot.Console) bool {
		return snap.Len() == 1
	})

	// Console drops the connection; the session retries and reconnects.
	require.NoError(t, console.current(t).Close())
	require.Eventually(t, func() bool {
		return console.connCount() >= 2 && s.State().Phase == connection.PhaseConnected
	}, 5*time.Second, time.Millisecond)

	// The rebuilt mirror is empty until the console answers the poll.
	snap := s.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 0, snap.Len())

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, phases, connection.PhaseReconnecting)
}

func TestEndToEndSaveRecord(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	console := startTestConsole(t)
	host, port := console.addr()

	s := session.New(testSessionConfig())
	t.Cleanup(s.Close)

	connectAndWait(t, s, host, port, profile.ModelQu)

	// Qu fader category, channel 2.
	console.write(t, nrpn.Encode(nrpn.NewPair(0, uint16(0x55)<<7|1, 16383)))
	waitForSnapshot(t, s, func(snap *snapshot.Console) bool {
		return snap.Len() == 1
	})

	saved, err := s.SaveCurrentSnapshot("soundcheck")
	require.NoError(t, err)

	// The record survives its serialized form.
	data, err := saved.Encode()
	require.NoError(t, err)
	restored, err := snapshot.DecodeSaved(data)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, restored.ID)
	assert.Equal(t, "soundcheck", restored.Name)
	assert.Equal(t, "qu", restored.Model)
	require.Contains(t, restored.Channels, 1)
	require.NotNil(t, restored.Channels[1].Fader)
}
