package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/motorlink/motorlink-go/pkg/transport"
)

// ErrGaveUp is returned when every dial attempt failed.
var ErrGaveUp = errors.New("worker unreachable")

// DialFunc opens one link. transport.Dial is the default.
type DialFunc func(ctx context.Context, network, addr string, cfg transport.Config) (*transport.Conn, error)

// Dialer connects to the worker, retrying with backoff.
type Dialer struct {
	// Network is "unix" or "tcp".
	Network string

	// Addr is the socket path or host:port.
	Addr string

	// Transport configures the established link.
	Transport transport.Config

	// Backoff between attempts (default: NewBackoff()).
	Backoff *Backoff

	// MaxAttempts bounds the number of attempts (0 = until ctx ends).
	MaxAttempts int

	// AttemptTimeout bounds a single attempt (0 = bounded by ctx only).
	AttemptTimeout time.Duration

	// Logger receives retry messages (optional).
	Logger *slog.Logger

	// OnRetry is called before waiting for the next attempt (optional).
	OnRetry func(attempt int, delay time.Duration, err error)

	// Dial opens a link (default: transport.Dial).
	Dial DialFunc
}

// DialContext connects, retrying until it succeeds, the attempt limit is
// reached or ctx ends.
func (d *Dialer) DialContext(ctx context.Context) (*transport.Conn, error) {
	backoff := d.Backoff
	if backoff == nil {
		backoff = NewBackoff()
	}
	dial := d.Dial
	if dial == nil {
		dial = transport.Dial
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var lastErr error
	for attempt := 1; d.MaxAttempts <= 0 || attempt <= d.MaxAttempts; attempt++ {
		conn, err := d.attempt(ctx, dial)
		if err == nil {
			backoff.Reset()
			logger.Debug("connected to worker", "addr", d.Addr, "attempts", attempt)
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if d.MaxAttempts > 0 && attempt == d.MaxAttempts {
			break
		}

		delay := backoff.Next()
		logger.Debug("worker not reachable, retrying",
			"addr", d.Addr,
			"attempt", attempt,
			"delay", delay,
			"error", err)
		if d.OnRetry != nil {
			d.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%w: %s %s: %w", ErrGaveUp, d.Network, d.Addr, lastErr)
}

func (d *Dialer) attempt(ctx context.Context, dial DialFunc) (*transport.Conn, error) {
	if d.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.AttemptTimeout)
		defer cancel()
	}
	return dial(ctx, d.Network, d.Addr, d.Transport)
}
