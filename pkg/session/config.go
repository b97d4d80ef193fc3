package session

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/connection"
)

const (
	// DefaultPollBatchSize is the number of parameter requests sent per
	// poll batch when the configuration does not specify one.
	DefaultPollBatchSize = 50

	// DefaultPollBatchDelay is the pause between consecutive poll
	// batches when the configuration does not specify one.
	DefaultPollBatchDelay = 50 * time.Millisecond
)

// Duration wraps time.Duration so that configuration files can use
// human-readable forms like "50ms" or "1m30s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config carries the session tunables. The zero value is not usable;
// start from DefaultConfig or LoadConfig.
type Config struct {
	// PollBatchSize is the number of parameter requests encoded into a
	// single transport write during a full-state poll.
	PollBatchSize int `yaml:"poll_batch_size"`

	// PollBatchDelay is the pause between consecutive poll batches.
	PollBatchDelay Duration `yaml:"poll_batch_delay"`

	// ConnectTimeout bounds a single dial attempt.
	ConnectTimeout Duration `yaml:"connect_timeout"`

	// UseTLS selects the console's TLS service port and wraps the
	// connection in a TLS client handshake.
	UseTLS bool `yaml:"use_tls"`

	// InsecureSkipVerify disables certificate verification for TLS
	// connections. Consoles ship with self-signed certificates, so
	// this is commonly required.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// BackoffInitial is the delay before the first reconnect attempt.
	BackoffInitial Duration `yaml:"backoff_initial"`

	// BackoffMax caps the delay between reconnect attempts.
	BackoffMax Duration `yaml:"backoff_max"`

	// BackoffMaxAttempts is the number of consecutive failed reconnect
	// attempts after which the session gives up.
	BackoffMaxAttempts int `yaml:"backoff_max_attempts"`
}

// DefaultConfig returns the configuration used when no file overrides
// are present.
func DefaultConfig() Config {
	return Config{
		PollBatchSize:      DefaultPollBatchSize,
		PollBatchDelay:     Duration{DefaultPollBatchDelay},
		ConnectTimeout:     Duration{10 * time.Second},
		BackoffInitial:     Duration{connection.InitialBackoff},
		BackoffMax:         Duration{connection.MaxBackoff},
		BackoffMaxAttempts: connection.MaxAttempts,
	}
}

// LoadConfig reads a YAML configuration file and applies it on top of
// the defaults. A missing file is not an error; the defaults are
// returned unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PollBatchSize < 1 {
		return fmt.Errorf("poll_batch_size must be at least 1, got %d", c.PollBatchSize)
	}
	if c.PollBatchDelay.Duration < 0 {
		return fmt.Errorf("poll_batch_delay must not be negative")
	}
	if c.BackoffMaxAttempts < 1 {
		return fmt.Errorf("backoff_max_attempts must be at least 1, got %d", c.BackoffMaxAttempts)
	}
	return nil
}

func (c Config) backoff() *connection.Backoff {
	return connection.NewBackoffWithConfig(connection.BackoffConfig{
		Initial:     c.BackoffInitial.Duration,
		Max:         c.BackoffMax.Duration,
		MaxAttempts: c.BackoffMaxAttempts,
	})
}
