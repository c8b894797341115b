package transport

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/motorlink/motorlink-go/pkg/log"
)

// Link errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
)

// State is the link state.
type State int32

const (
	// StateOpen indicates a usable link.
	StateOpen State = iota

	// StateClosed indicates the link has been closed locally or by the peer.
	StateClosed
)

// String returns the link state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Config configures a link.
type Config struct {
	// MaxMessageSize is the maximum frame payload (default: 64KB).
	MaxMessageSize uint32

	// Logger receives frame events (optional).
	Logger log.Logger

	// ConnectionID tags frame events.
	ConnectionID string
}

// Conn is a framed, bidirectional link to the peer process.
type Conn struct {
	conn   net.Conn
	framer *Framer

	state     atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps a raw network connection with framing.
func NewConn(conn net.Conn, cfg Config) *Conn {
	framer := NewFramer(conn, cfg.MaxMessageSize)
	if cfg.Logger != nil {
		framer.SetLogger(cfg.Logger, cfg.ConnectionID)
	}
	return &Conn{conn: conn, framer: framer}
}

// Send writes one message as a frame.
func (c *Conn) Send(data []byte) error {
	if c.State() == StateClosed {
		return ErrConnectionClosed
	}
	return c.framer.WriteFrame(data)
}

// Receive blocks until the next message arrives.
// It returns io.EOF once the peer has closed the link.
func (c *Conn) Receive() ([]byte, error) {
	data, err := c.framer.ReadFrame()
	if err != nil {
		if c.State() == StateClosed || errors.Is(err, net.ErrClosed) {
			return nil, io.EOF
		}
		return nil, err
	}
	return data, nil
}

// State returns the current link state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the link. Safe to call multiple times.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
