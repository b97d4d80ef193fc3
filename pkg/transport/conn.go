package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// Transport errors.
var (
	// ErrConnectionClosed indicates an operation on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")
)

// DefaultConnectTimeout bounds a dial when the caller's context carries
// no deadline.
const DefaultConnectTimeout = 10 * time.Second

// DialFunc establishes the underlying network connection. Tests inject
// one to avoid real sockets.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Config configures the transport.
type Config struct {
	// UseTLS selects the console's TLS-secured alternate port behavior:
	// the TCP connection is wrapped in a TLS client handshake.
	UseTLS bool

	// TLSConfig is used when UseTLS is set. Nil selects a default that
	// verifies the console's certificate against system roots.
	TLSConfig *tls.Config

	// ConnectTimeout bounds the dial (default: 10s).
	ConnectTimeout time.Duration

	// Dial overrides the network dialer. Nil uses net.Dialer.
	Dial DialFunc
}

// Dial establishes a transport connection to addr (host:port).
func Dial(ctx context.Context, addr string, cfg Config) (*Conn, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	dial := cfg.Dial
	if dial == nil {
		dialer := &net.Dialer{}
		dial = dialer.DialContext
	}

	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	if cfg.UseTLS {
		tlsConf := cfg.TLSConfig
		if tlsConf == nil {
			tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		tlsConn := tls.Client(conn, tlsConf)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("TLS handshake failed: %w", err)
		}
		conn = tlsConn
	}

	return &Conn{
		conn:    conn,
		closeCh: make(chan struct{}),
	}, nil
}

// Conn is a live transport connection. Reads are unframed chunk reads;
// writes are serialized so poll batches do not interleave.
type Conn struct {
	conn    net.Conn
	closeCh chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex
}

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the console's network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Read fills buf with whatever bytes the network has, blocking until at
// least one byte arrives, the connection fails, or it is closed.
func (c *Conn) Read(buf []byte) (int, error) {
	select {
	case <-c.closeCh:
		return 0, ErrConnectionClosed
	default:
	}
	return c.conn.Read(buf)
}

// Send writes data to the console. Safe for concurrent use.
func (c *Conn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// Close closes the connection. Safe to call more than once; concurrent
// reads unblock with an error.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}
