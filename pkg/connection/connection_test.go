package connection

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorlink/motorlink-go/pkg/transport"
)

func TestBackoffGrowsToMax(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Jitter: -1})

	for _, want := range Sequence() {
		assert.Equal(t, want, b.Next())
	}
	assert.Equal(t, MaxBackoff, b.Next(), "stays at max")
	assert.Equal(t, len(Sequence())+1, b.Attempts())

	b.Reset()
	assert.Equal(t, 0, b.Attempts())
	assert.Equal(t, InitialBackoff, b.Current())
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoff()
	for range 50 {
		b.Reset()
		d := b.Next()
		assert.GreaterOrEqual(t, d, InitialBackoff)
		assert.LessOrEqual(t, d, InitialBackoff+time.Duration(float64(InitialBackoff)*JitterFactor))
	}
}

func TestSequence(t *testing.T) {
	seq := Sequence()
	assert.Equal(t, InitialBackoff, seq[0])
	assert.Equal(t, MaxBackoff, seq[len(seq)-1])
	assert.Equal(t, 100*time.Millisecond, seq[1])
}

func TestDialerRetriesUntilWorkerListens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.sock")

	accepted := make(chan struct{})
	go func() {
		time.Sleep(80 * time.Millisecond)
		ln, err := transport.Listen(transport.NetworkUnix, path, transport.Config{})
		if !assert.NoError(t, err) {
			return
		}
		defer ln.Close()
		conn, err := ln.Accept()
		if assert.NoError(t, err) {
			_ = conn.Close()
		}
		close(accepted)
	}()

	var retries atomic.Int32
	d := &Dialer{
		Network: transport.NetworkUnix,
		Addr:    path,
		Backoff: NewBackoffWithConfig(BackoffConfig{Initial: 10 * time.Millisecond, Max: 20 * time.Millisecond}),
		OnRetry: func(int, time.Duration, error) { retries.Add(1) },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := d.DialContext(ctx)
	require.NoError(t, err)
	defer conn.Close()

	<-accepted
	assert.Positive(t, retries.Load())
	assert.Equal(t, 0, d.Backoff.Attempts(), "reset after success")
}

func TestDialerGivesUp(t *testing.T) {
	dialErr := errors.New("refused")
	var calls int
	d := &Dialer{
		Network:     transport.NetworkTCP,
		Addr:        "127.0.0.1:1",
		MaxAttempts: 3,
		Backoff:     NewBackoffWithConfig(BackoffConfig{Initial: time.Millisecond, Jitter: -1}),
		Dial: func(context.Context, string, string, transport.Config) (*transport.Conn, error) {
			calls++
			return nil, dialErr
		},
	}

	_, err := d.DialContext(context.Background())
	assert.ErrorIs(t, err, ErrGaveUp)
	assert.ErrorIs(t, err, dialErr)
	assert.Equal(t, 3, calls)
}

func TestDialerContextCancel(t *testing.T) {
	d := &Dialer{
		Network: transport.NetworkUnix,
		Addr:    filepath.Join(t.TempDir(), "missing.sock"),
		Backoff: NewBackoffWithConfig(BackoffConfig{Initial: time.Second}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := d.DialContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
