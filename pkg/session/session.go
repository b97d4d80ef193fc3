package session

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/connection"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/log"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/midi"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/nrpn"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/snapshot"
	"github.com/sanctuarysoundapp/mixerlink-go/pkg/transport"
)

// Session errors.
var (
	// ErrSessionClosed indicates the session has been closed and cannot
	// be reused.
	ErrSessionClosed = errors.New("session closed")

	// ErrNoSnapshot indicates no console state has been observed yet.
	ErrNoSnapshot = errors.New("no snapshot available")
)

// readBufferSize is the transport read buffer. Chunks larger than this
// are simply delivered across multiple reads; the parser does not care.
const readBufferSize = 4096

// StateCallback receives connection state transitions.
type StateCallback func(connection.State)

// SnapshotCallback receives a deep copy of the mirror after each chunk
// that changed it.
type SnapshotCallback func(*snapshot.Console)

// Session owns one logical console connection and its state mirror.
// All methods are safe for concurrent use.
type Session struct {
	cfg    Config
	logger log.Logger

	// dialer overrides the network dialer; nil uses net.Dialer. Tests
	// inject one to run against an in-process fake console.
	dialer transport.DialFunc

	mu sync.Mutex

	// generation invalidates goroutines belonging to a superseded
	// connection attempt. Bumped by Connect, Disconnect and Close.
	generation int

	state   connection.State
	prof    profile.Profile
	backoff *connection.Backoff
	conn    *transport.Conn
	connID  string
	mirror  *snapshot.Console

	host  string
	port  int
	model profile.Model

	// wasActive remembers across EnterBackground whether a connection
	// should be restored on EnterForeground.
	wasActive bool
	closed    bool

	retryCancel context.CancelFunc
	pollCancel  context.CancelFunc

	stateCallbacks []StateCallback
	snapCallbacks  []SnapshotCallback
	stateCh        chan connection.State
	snapCh         chan *snapshot.Console

	wg sync.WaitGroup
}

// New creates a session with the given configuration. Events are
// discarded until SetLogger is called.
func New(cfg Config) *Session {
	return &Session{
		cfg:     cfg,
		logger:  log.NoopLogger{},
		state:   connection.Disconnected(),
		backoff: cfg.backoff(),
		stateCh: make(chan connection.State, 1),
		snapCh:  make(chan *snapshot.Console, 1),
	}
}

// SetLogger installs the protocol event logger. Pass nil to disable.
func (s *Session) SetLogger(l log.Logger) {
	if l == nil {
		l = log.NoopLogger{}
	}
	s.mu.Lock()
	s.logger = l
	s.mu.Unlock()
}

// OnStateChange registers a callback invoked on every connection state
// transition. Callbacks run on session goroutines and must not block.
func (s *Session) OnStateChange(cb StateCallback) {
	s.mu.Lock()
	s.stateCallbacks = append(s.stateCallbacks, cb)
	s.mu.Unlock()
}

// OnSnapshot registers a callback invoked with a deep copy of the
// mirror after each chunk that changed it.
func (s *Session) OnSnapshot(cb SnapshotCallback) {
	s.mu.Lock()
	s.snapCallbacks = append(s.snapCallbacks, cb)
	s.mu.Unlock()
}

// States returns a channel carrying state transitions. The channel has
// capacity one and latest-wins semantics: a slow reader sees only the
// most recent state.
func (s *Session) States() <-chan connection.State { return s.stateCh }

// Snapshots returns a channel carrying mirror copies, latest-wins.
func (s *Session) Snapshots() <-chan *snapshot.Console { return s.snapCh }

// State returns the current connection state.
func (s *Session) State() connection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a deep copy of the current mirror, or nil if no
// connection has been established yet.
func (s *Session) Snapshot() *snapshot.Console {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mirror == nil {
		return nil
	}
	return s.mirror.Clone()
}

// SaveCurrentSnapshot freezes the current mirror under a name for the
// persistence collaborator.
func (s *Session) SaveCurrentSnapshot(name string) (*snapshot.Saved, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mirror == nil {
		return nil, ErrNoSnapshot
	}
	return snapshot.NewSaved(name, s.mirror), nil
}

// Connect establishes a connection to a console. An unsupported model
// is a configuration error: the session enters the terminal error state
// without a connection attempt. Connect supersedes any pending
// scheduled retry; a dial failure starts the reconnect schedule.
func (s *Session) Connect(ctx context.Context, host string, port int, model profile.Model) error {
	prof, err := profile.ForModel(model)
	if err != nil {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrSessionClosed
		}
		s.mu.Unlock()
		s.transition(connection.Errored(err.Error()), "connect rejected")
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.supersedeLocked()
	gen := s.generation
	s.prof = prof
	s.host = host
	s.port = port
	s.model = model
	s.backoff.Reset()
	s.wasActive = true
	s.mu.Unlock()

	s.transition(connection.Connecting(), "connect requested")
	return s.attempt(ctx, gen)
}

// Disconnect tears down the connection and cancels any pending retry.
// The session stays usable; Connect starts over.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.supersedeLocked()
	s.wasActive = false
	s.mu.Unlock()
	s.transition(connection.Disconnected(), "disconnect requested")
}

// Close tears down the session permanently and waits for its goroutines
// to finish.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.supersedeLocked()
	s.mu.Unlock()
	s.transition(connection.Disconnected(), "session closed")
	s.wg.Wait()
}

// EnterBackground tears down the connection and pending retries but
// remembers whether one was active, so EnterForeground can restore it.
func (s *Session) EnterBackground() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	active := s.state.Phase == connection.PhaseConnecting ||
		s.state.Phase == connection.PhaseConnected ||
		s.state.Phase == connection.PhaseReconnecting
	s.supersedeLocked()
	s.wasActive = s.wasActive && active
	s.mu.Unlock()
	s.transition(connection.Disconnected(), "entered background")
}

// EnterForeground restores the connection torn down by EnterBackground.
// It is a no-op when nothing was active.
func (s *Session) EnterForeground(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if !s.wasActive {
		s.mu.Unlock()
		return nil
	}
	host, port, model := s.host, s.port, s.model
	s.mu.Unlock()
	return s.Connect(ctx, host, port, model)
}

// supersedeLocked invalidates the current connection, its goroutines
// and any pending retry. Callers hold s.mu.
func (s *Session) supersedeLocked() {
	s.generation++
	if s.retryCancel != nil {
		s.retryCancel()
		s.retryCancel = nil
	}
	if s.pollCancel != nil {
		s.pollCancel()
		s.pollCancel = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// attempt dials the console once. On success it installs the connection
// and starts the receive and poll loops; on failure it schedules a
// retry. gen guards against a Connect or Disconnect that superseded
// this attempt while it was in flight.
func (s *Session) attempt(ctx context.Context, gen int) error {
	s.mu.Lock()
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	cfg := transport.Config{
		UseTLS:         s.cfg.UseTLS,
		ConnectTimeout: s.cfg.ConnectTimeout.Duration,
		Dial:           s.dialer,
	}
	if s.cfg.UseTLS && s.cfg.InsecureSkipVerify {
		// Consoles ship self-signed certificates.
		cfg.TLSConfig = &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}
	}
	s.mu.Unlock()

	conn, err := transport.Dial(ctx, addr, cfg)
	if err != nil {
		s.mu.Lock()
		stale := s.closed || gen != s.generation
		s.mu.Unlock()
		if !stale {
			s.scheduleReconnect(gen, err.Error())
		}
		return err
	}

	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		conn.Close()
		return nil
	}
	s.conn = conn
	s.connID = uuid.NewString()
	s.backoff.Reset()
	if s.mirror == nil || s.mirror.Model() != s.model {
		s.mirror = snapshot.New(s.model)
	} else {
		// Values observed before a connectivity gap cannot be trusted.
		s.mirror.Reset()
	}
	prof := s.prof
	pollCtx, pollCancel := context.WithCancel(context.Background())
	s.pollCancel = pollCancel
	s.mu.Unlock()

	s.transitionGuarded(gen, connection.Connected(), "")

	s.wg.Add(2)
	go s.readLoop(conn, gen)
	go s.pollAll(pollCtx, conn, prof)
	return nil
}

// scheduleReconnect arranges the next attempt after the backoff delay,
// or enters the terminal error state when the ceiling is reached.
func (s *Session) scheduleReconnect(gen int, cause string) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		return
	}
	if s.backoff.Exhausted() {
		s.mu.Unlock()
		s.transitionGuarded(gen, connection.Errored("reconnect attempts exhausted: "+cause), cause)
		return
	}
	delay := s.backoff.Next()
	attempt := s.backoff.Attempts()
	retryCtx, cancel := context.WithCancel(context.Background())
	s.retryCancel = cancel
	s.mu.Unlock()

	s.transitionGuarded(gen, connection.Reconnecting(attempt), cause)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-retryCtx.Done():
			return
		case <-timer.C:
		}
		s.mu.Lock()
		if s.closed || gen != s.generation {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		s.transitionGuarded(gen, connection.Connecting(), "retry")
		_ = s.attempt(context.Background(), gen)
	}()
}

// readLoop drives incoming bytes through the pipeline. Parser and
// assembler are local: their state belongs to exactly one connection.
func (s *Session) readLoop(conn *transport.Conn, gen int) {
	defer s.wg.Done()

	parser := midi.NewStreamParser()
	assembler := nrpn.NewAssembler()
	buf := make([]byte, readBufferSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.processChunk(parser, assembler, buf[:n], conn)
		}
		if err != nil {
			s.mu.Lock()
			stale := s.closed || gen != s.generation
			if !stale {
				if s.pollCancel != nil {
					s.pollCancel()
					s.pollCancel = nil
				}
				s.conn = nil
			}
			s.mu.Unlock()
			conn.Close()
			if !stale {
				s.logError("transport read failed", err)
				s.scheduleReconnect(gen, err.Error())
			}
			return
		}
	}
}

// processChunk parses one transport chunk, assembles parameter pairs,
// decodes them through the profile and merges them into the mirror.
// Unknown parameters are dropped silently; they are still visible in
// the chunk-level event log.
func (s *Session) processChunk(parser *midi.StreamParser, assembler *nrpn.Assembler, chunk []byte, conn *transport.Conn) {
	s.logEvent(log.Event{
		Direction:  log.DirectionIn,
		Category:   log.CategoryChunk,
		RemoteAddr: conn.RemoteAddr().String(),
		Chunk:      log.NewChunkEvent(append([]byte(nil), chunk...)),
	})

	pairs := assembler.FeedAll(parser.Feed(chunk))
	if len(pairs) == 0 {
		return
	}

	var (
		clone  *snapshot.Console
		params []log.Event
	)
	s.mu.Lock()
	prof, mirror := s.prof, s.mirror
	changed := false
	for _, p := range pairs {
		ch, id, ok := prof.DecodeParameter(p)
		if !ok || id.Kind == profile.KindUnknown {
			continue
		}
		v := prof.ConvertValue(p.Value(), id)
		if mirror.Apply(ch, id, v) {
			changed = true
			params = append(params, log.Event{
				Direction: log.DirectionIn,
				Category:  log.CategoryParameter,
				Parameter: &log.ParameterEvent{
					Channel:  ch,
					Identity: id.String(),
					Value:    v.Format(),
				},
			})
		}
	}
	if changed {
		clone = mirror.Clone()
	}
	snapCBs := append([]SnapshotCallback(nil), s.snapCallbacks...)
	s.mu.Unlock()

	for _, ev := range params {
		s.logEvent(ev)
	}
	if clone == nil {
		return
	}
	for _, cb := range snapCBs {
		cb(clone)
	}
	publishLatest(s.snapCh, clone)
}

// transition updates the connection state, logs it and notifies
// observers. reason is free text for the event log.
func (s *Session) transition(next connection.State, reason string) {
	s.transitionGuarded(-1, next, reason)
}

// transitionGuarded is transition for connection-bound goroutines: the
// state only changes when gen still matches the current generation, so
// a superseded attempt cannot publish a stale state. Pass -1 to skip
// the guard.
func (s *Session) transitionGuarded(gen int, next connection.State, reason string) {
	s.mu.Lock()
	if gen >= 0 && gen != s.generation {
		s.mu.Unlock()
		return
	}
	prev := s.state
	if prev == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	cbs := append([]StateCallback(nil), s.stateCallbacks...)
	s.mu.Unlock()

	s.logEvent(log.Event{
		Direction: log.DirectionNone,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: prev.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
	for _, cb := range cbs {
		cb(next)
	}
	publishLatest(s.stateCh, next)
}

func (s *Session) logEvent(ev log.Event) {
	s.mu.Lock()
	logger := s.logger
	ev.ConnectionID = s.connID
	ev.Model = string(s.model)
	s.mu.Unlock()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	logger.Log(ev)
}

func (s *Session) logError(where string, err error) {
	s.logEvent(log.Event{
		Direction: log.DirectionNone,
		Category:  log.CategoryError,
		Error:     &log.ErrorEvent{Message: err.Error(), Context: where},
	})
}

// publishLatest delivers v on a capacity-one channel, displacing an
// undelivered older value.
func publishLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
