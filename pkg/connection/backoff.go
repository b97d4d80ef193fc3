package connection

import (
	"sync"
	"time"
)

// Backoff constants.
const (
	// InitialBackoff is the delay before the first retry.
	InitialBackoff = 1 * time.Second

	// MaxBackoff is the maximum retry delay.
	MaxBackoff = 60 * time.Second

	// MaxAttempts is the retry ceiling. The attempt after this many
	// consecutive failures transitions the session to a terminal error.
	MaxAttempts = 10
)

// Backoff calculates exponential reconnect delays: 2^(N-1) seconds
// before attempt N, capped at the maximum.
type Backoff struct {
	mu sync.Mutex

	current     time.Duration
	initial     time.Duration
	max         time.Duration
	attempts    int
	maxAttempts int
}

// NewBackoff creates a backoff calculator with default settings.
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(BackoffConfig{})
}

// BackoffConfig allows customizing backoff parameters, mainly for tests.
type BackoffConfig struct {
	Initial     time.Duration
	Max         time.Duration
	MaxAttempts int
}

// NewBackoffWithConfig creates a backoff calculator with custom settings.
func NewBackoffWithConfig(cfg BackoffConfig) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = InitialBackoff
	}
	if cfg.Max <= 0 {
		cfg.Max = MaxBackoff
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = MaxAttempts
	}
	return &Backoff{
		current:     cfg.Initial,
		initial:     cfg.Initial,
		max:         cfg.Max,
		maxAttempts: cfg.MaxAttempts,
	}
}

// Next returns the delay before the next attempt and advances the
// backoff.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.current

	b.attempts++
	next := b.current * 2
	if next > b.max {
		next = b.max
	}
	b.current = next

	return delay
}

// Reset resets the backoff to initial values. Call after a successful
// connection.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Exhausted reports whether the retry ceiling has been passed.
func (b *Backoff) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts >= b.maxAttempts
}

// DelayFor returns the delay before attempt n (1-based) under the
// default law, without any state: 2^(n-1) seconds capped at MaxBackoff.
func DelayFor(n int) time.Duration {
	if n < 1 {
		return 0
	}
	d := InitialBackoff
	for i := 1; i < n; i++ {
		d *= 2
		if d >= MaxBackoff {
			return MaxBackoff
		}
	}
	return d
}
