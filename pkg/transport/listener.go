package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Network names accepted by Listen and Dial.
const (
	NetworkUnix = "unix"
	NetworkTCP  = "tcp"
)

// Listener accepts framed links from UI processes.
type Listener struct {
	ln  net.Listener
	cfg Config
}

// Listen opens a listener on a unix socket path or a tcp address.
// A stale unix socket file from a previous run is removed first.
func Listen(network, addr string, cfg Config) (*Listener, error) {
	if network == NetworkUnix {
		if err := os.Remove(addr); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s %s: %w", network, addr, err)
	}
	return &Listener{ln: ln, cfg: cfg}, nil
}

// Accept waits for the next link.
func (l *Listener) Accept() (*Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return NewConn(conn, l.cfg), nil
}

// Addr returns the listen address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting links.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Dial connects to a worker listening on network/addr.
func Dial(ctx context.Context, network, addr string, cfg Config) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return NewConn(conn, cfg), nil
}
