package session

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/connection"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/midi"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/nrpn"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"
)

// fakeConsole stands in for the network: every dial yields one side of
// an in-process pipe and records everything the session transmits.
type fakeConsole struct {
	mu       sync.Mutex
	dials    int
	refuse   bool
	servers  []net.Conn
	received []byte
}

func (f *fakeConsole) dial(ctx context.Context, network, address string) (net.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials++
	if f.refuse {
		return nil, errors.New("connection refused")
	}
	client, server := net.Pipe()
	f.servers = append(f.servers, server)
	go f.drain(server)
	return client, nil
}

// drain keeps the session's writes from blocking on the synchronous pipe.
func (f *fakeConsole) drain(server net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := server.Read(buf)
		if n > 0 {
			f.mu.Lock()
			f.received = append(f.received, buf[:n]...)
			f.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (f *fakeConsole) setRefuse(v bool) {
	f.mu.Lock()
	f.refuse = v
	f.mu.Unlock()
}

func (f *fakeConsole) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

func (f *fakeConsole) latest() net.Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.servers) == 0 {
		return nil
	}
	return f.servers[len(f.servers)-1]
}

func (f *fakeConsole) receivedBytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.received...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ConnectTimeout = Duration{time.Second}
	cfg.PollBatchDelay = Duration{0}
	cfg.BackoffInitial = Duration{time.Millisecond}
	cfg.BackoffMax = Duration{4 * time.Millisecond}
	cfg.BackoffMaxAttempts = 3
	return cfg
}

func newTestSession(t *testing.T, f *fakeConsole) *Session {
	t.Helper()
	s := New(testConfig())
	s.dialer = f.dial
	t.Cleanup(s.Close)
	return s
}

func waitForPhase(t *testing.T, s *Session, phase connection.Phase) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.State().Phase == phase
	}, 2*time.Second, time.Millisecond, "expected phase %s", phase)
}

func TestConnectUnsupportedModel(t *testing.T) {
	fake := &fakeConsole{}
	s := newTestSession(t, fake)

	err := s.Connect(context.Background(), "10.0.0.5", 51325, profile.Model("x32"))
	require.Error(t, err)
	assert.ErrorIs(t, err, profile.ErrUnsupportedModel)
	assert.Equal(t, connection.PhaseError, s.State().Phase)
	assert.Equal(t, 0, fake.dialCount(), "no connection attempt for an unsupported model")
}

func TestConnectAndMirror(t *testing.T) {
	fake := &fakeConsole{}
	s := newTestSession(t, fake)

	require.NoError(t, s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ))
	waitForPhase(t, s, connection.PhaseConnected)

	// Fader channel 5 at full scale: MSB category 0x25, raw 16383.
	server := fake.latest()
	pair := nrpn.NewPair(0, uint16(0x25)<<7|5, 16383)
	_, err := server.Write(nrpn.Encode(pair))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		if snap == nil {
			return false
		}
		ch := snap.Channel(5)
		return ch != nil && ch.Fader != nil && *ch.Fader == 10.0
	}, 2*time.Second, time.Millisecond)
}

func TestRunningStatusAcrossWrites(t *testing.T) {
	fake := &fakeConsole{}
	s := newTestSession(t, fake)

	require.NoError(t, s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ))
	waitForPhase(t, s, connection.PhaseConnected)

	// Mute channel 3, sent with running status, split mid-sequence
	// across two transport writes.
	stream := []byte{
		0xB0, 99, 0x26, 98, 3, // address
		6, 0x7F, 38, 0x7F, // value, running status
	}
	server := fake.latest()
	_, err := server.Write(stream[:4])
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = server.Write(stream[4:])
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		if snap == nil {
			return false
		}
		ch := snap.Channel(3)
		return ch != nil && ch.Muted != nil && *ch.Muted
	}, 2*time.Second, time.Millisecond)
}

func TestReconnectClearsSnapshot(t *testing.T) {
	fake := &fakeConsole{}
	s := newTestSession(t, fake)

	require.NoError(t, s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ))
	waitForPhase(t, s, connection.PhaseConnected)

	server := fake.latest()
	pair := nrpn.NewPair(0, uint16(0x26)<<7|0, 0x3000)
	_, err := server.Write(nrpn.Encode(pair))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap != nil && snap.Len() == 1
	}, 2*time.Second, time.Millisecond)

	// Console drops the connection.
	require.NoError(t, server.Close())

	require.Eventually(t, func() bool {
		return fake.dialCount() >= 2 && s.State().Phase == connection.PhaseConnected
	}, 2*time.Second, time.Millisecond)

	// The rebuilt mirror starts empty; nothing answered the new poll.
	snap := s.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 0, snap.Len(), "reconnect must discard accumulated state")
}

func TestRetryExhaustion(t *testing.T) {
	fake := &fakeConsole{refuse: true}
	s := newTestSession(t, fake)

	err := s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ)
	require.Error(t, err)

	waitForPhase(t, s, connection.PhaseError)
	st := s.State()
	assert.True(t, st.IsTerminal())
	assert.Contains(t, st.Message, "reconnect attempts exhausted")
	// Initial attempt plus one per backoff slot.
	assert.Equal(t, 1+testConfig().BackoffMaxAttempts, fake.dialCount())
}

func TestReconnectAttemptNumbers(t *testing.T) {
	fake := &fakeConsole{refuse: true}
	s := newTestSession(t, fake)

	var mu sync.Mutex
	var attempts []int
	s.OnStateChange(func(st connection.State) {
		if st.Phase == connection.PhaseReconnecting {
			mu.Lock()
			attempts = append(attempts, st.Attempt)
			mu.Unlock()
		}
	})

	_ = s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ)
	waitForPhase(t, s, connection.PhaseError)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestManualConnectSupersedesRetry(t *testing.T) {
	fake := &fakeConsole{refuse: true}
	cfg := testConfig()
	cfg.BackoffInitial = Duration{time.Hour}
	s := New(cfg)
	s.dialer = fake.dial
	t.Cleanup(s.Close)

	_ = s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ)
	waitForPhase(t, s, connection.PhaseReconnecting)

	fake.setRefuse(false)
	require.NoError(t, s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ))
	waitForPhase(t, s, connection.PhaseConnected)

	// The superseded retry never fires.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, fake.dialCount())
	assert.Equal(t, connection.PhaseConnected, s.State().Phase)
}

func TestDisconnect(t *testing.T) {
	fake := &fakeConsole{}
	s := newTestSession(t, fake)

	require.NoError(t, s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ))
	waitForPhase(t, s, connection.PhaseConnected)

	s.Disconnect()
	assert.Equal(t, connection.PhaseDisconnected, s.State().Phase)

	// No reconnect after a user-initiated teardown.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, fake.dialCount())
}

func TestBackgroundForeground(t *testing.T) {
	fake := &fakeConsole{}
	s := newTestSession(t, fake)

	require.NoError(t, s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ))
	waitForPhase(t, s, connection.PhaseConnected)

	s.EnterBackground()
	assert.Equal(t, connection.PhaseDisconnected, s.State().Phase)

	require.NoError(t, s.EnterForeground(context.Background()))
	waitForPhase(t, s, connection.PhaseConnected)
	assert.Equal(t, 2, fake.dialCount())
}

func TestForegroundWithoutPriorConnection(t *testing.T) {
	fake := &fakeConsole{}
	s := newTestSession(t, fake)

	require.NoError(t, s.EnterForeground(context.Background()))
	assert.Equal(t, 0, fake.dialCount())
	assert.Equal(t, connection.PhaseDisconnected, s.State().Phase)
}

func TestSaveCurrentSnapshot(t *testing.T) {
	fake := &fakeConsole{}
	s := newTestSession(t, fake)

	_, err := s.SaveCurrentSnapshot("before show")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ))
	waitForPhase(t, s, connection.PhaseConnected)

	server := fake.latest()
	pair := nrpn.NewPair(0, uint16(0x25)<<7|0, 16383)
	_, err = server.Write(nrpn.Encode(pair))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap != nil && snap.Len() == 1
	}, 2*time.Second, time.Millisecond)

	saved, err := s.SaveCurrentSnapshot("before show")
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "before show", saved.Name)
	assert.Equal(t, "sq", saved.Model)
	require.Contains(t, saved.Channels, 0)
	require.NotNil(t, saved.Channels[0].Fader)
	assert.Equal(t, 10.0, *saved.Channels[0].Fader)
}

func TestFullStatePoll(t *testing.T) {
	fake := &fakeConsole{}
	s := newTestSession(t, fake)

	require.NoError(t, s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ))
	waitForPhase(t, s, connection.PhaseConnected)

	prof, err := profile.ForModel(profile.ModelSQ)
	require.NoError(t, err)
	wantRequests := prof.ChannelCount() * len(prof.BuildChannelPollMessages(0))

	require.Eventually(t, func() bool {
		return len(fake.receivedBytes()) >= wantRequests*nrpn.EncodedPairSize
	}, 5*time.Second, time.Millisecond)

	// Every transmitted request assembles back into a poll-sentinel pair.
	parser := midi.NewStreamParser()
	assembler := nrpn.NewAssembler()
	pairs := assembler.FeedAll(parser.Feed(fake.receivedBytes()))
	require.Len(t, pairs, wantRequests)
	for _, p := range pairs {
		require.Equal(t, uint16(0x3FFF), p.Value())
	}
}

func TestStatesChannelLatestWins(t *testing.T) {
	fake := &fakeConsole{refuse: true}
	s := newTestSession(t, fake)

	_ = s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ)
	waitForPhase(t, s, connection.PhaseError)

	// The slow reader sees only the most recent transition.
	select {
	case st := <-s.States():
		assert.Equal(t, connection.PhaseError, st.Phase)
	default:
		t.Fatal("expected a buffered state")
	}
}

func TestSessionClosed(t *testing.T) {
	fake := &fakeConsole{}
	s := newTestSession(t, fake)
	s.Close()

	err := s.Connect(context.Background(), "10.0.0.5", 51325, profile.ModelSQ)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, s.EnterForeground(context.Background()), ErrSessionClosed)
}
