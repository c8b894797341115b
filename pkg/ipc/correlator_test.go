package ipc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorlink/motorlink-go/pkg/wire"
)

// captureSender decodes and queues every envelope the correlator sends.
type captureSender struct {
	mu   sync.Mutex
	sent chan *wire.Envelope
	err  error
}

func newCaptureSender() *captureSender {
	return &captureSender{sent: make(chan *wire.Envelope, 16)}
}

func (s *captureSender) Send(data []byte) error {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	env, decErr := wire.DecodeEnvelope(data)
	if decErr != nil {
		return decErr
	}
	s.sent <- env
	return nil
}

func (s *captureSender) next(t *testing.T) *wire.Envelope {
	t.Helper()
	select {
	case env := <-s.sent:
		return env
	case <-time.After(time.Second):
		t.Fatal("nothing sent")
		return nil
	}
}

func reply(t *testing.T, id uint32, result any) *wire.Envelope {
	t.Helper()
	env, err := wire.NewReply(id, result, nil)
	require.NoError(t, err)
	return env
}

type callResult struct {
	value string
	err   error
}

func TestCorrelatorRoutesRepliesOutOfOrder(t *testing.T) {
	sender := newCaptureSender()
	c := NewCorrelator(sender, nil)

	results := make(map[string]chan callResult)
	for _, name := range []string{"a", "b"} {
		ch := make(chan callResult, 1)
		results[name] = ch
		go func(name string) {
			var out string
			err := c.Call(context.Background(), "echo", name, &out)
			ch <- callResult{out, err}
		}(name)
		// issue in order so ids are assigned in order
		env := sender.next(t)
		var arg string
		require.NoError(t, wire.DecodePayload(env.Payload, &arg))
		require.Equal(t, name, arg)
	}
	require.Equal(t, 2, c.Pending())

	// ids are 1 and 2; answer 2 first
	require.True(t, c.HandleReply(reply(t, 2, "reply-b")))

	got := <-results["b"]
	require.NoError(t, got.err)
	assert.Equal(t, "reply-b", got.value)

	select {
	case <-results["a"]:
		t.Fatal("a resolved by b's reply")
	case <-time.After(10 * time.Millisecond):
	}
	assert.Equal(t, 1, c.Pending())

	require.True(t, c.HandleReply(reply(t, 1, "reply-a")))
	got = <-results["a"]
	require.NoError(t, got.err)
	assert.Equal(t, "reply-a", got.value)
	assert.Zero(t, c.Pending())
}

func TestCorrelatorManyConcurrentCalls(t *testing.T) {
	sender := newCaptureSender()
	c := NewCorrelator(sender, nil)

	const n = 50
	sender.sent = make(chan *wire.Envelope, n)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out int
			if err := c.Call(context.Background(), "square", i, &out); err != nil {
				errs <- err
				return
			}
			if out != i*i {
				errs <- errors.New("cross-resolved reply")
			}
		}(i)
	}

	calls := make([]*wire.Envelope, 0, n)
	for i := 0; i < n; i++ {
		calls = append(calls, sender.next(t))
	}
	for i := len(calls) - 1; i >= 0; i-- {
		var arg int
		require.NoError(t, wire.DecodePayload(calls[i].Payload, &arg))
		c.HandleReply(reply(t, calls[i].CorrelationID, arg*arg))
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestCorrelatorDropsLateAndUnknownReplies(t *testing.T) {
	sender := newCaptureSender()
	c := NewCorrelator(sender, nil)

	assert.False(t, c.HandleReply(reply(t, 99, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Call(ctx, "slow", nil, nil) }()
	env := sender.next(t)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	// the abandoned call's reply arrives late
	assert.False(t, c.HandleReply(reply(t, env.CorrelationID, nil)))
	assert.Equal(t, uint64(2), c.Dropped())
	assert.Zero(t, c.Pending())
}

func TestCorrelatorDuplicateReply(t *testing.T) {
	sender := newCaptureSender()
	c := NewCorrelator(sender, nil)

	errc := make(chan error, 1)
	go func() { errc <- c.Call(context.Background(), "ping", nil, nil) }()
	env := sender.next(t)

	assert.True(t, c.HandleReply(reply(t, env.CorrelationID, nil)))
	assert.False(t, c.HandleReply(reply(t, env.CorrelationID, nil)))
	assert.NoError(t, <-errc)
}

func TestCorrelatorRemoteError(t *testing.T) {
	sender := newCaptureSender()
	c := NewCorrelator(sender, nil)

	errc := make(chan error, 1)
	go func() { errc <- c.Call(context.Background(), "connect", nil, nil) }()
	env := sender.next(t)

	errReply, err := wire.NewReply(env.CorrelationID, nil, &wire.RemoteError{Code: 100, Message: "device not found"})
	require.NoError(t, err)
	c.HandleReply(errReply)

	err = <-errc
	var ipcErr *Error
	require.ErrorAs(t, err, &ipcErr)
	assert.Equal(t, uint16(100), ipcErr.Code)
	assert.Equal(t, "device not found", ipcErr.Message)
	assert.ErrorIs(t, err, &Error{Code: 100})
}

func TestCorrelatorClose(t *testing.T) {
	sender := newCaptureSender()
	c := NewCorrelator(sender, nil)

	errc := make(chan error, 1)
	go func() { errc <- c.Call(context.Background(), "ping", nil, nil) }()
	sender.next(t)

	c.Close()
	assert.ErrorIs(t, <-errc, ErrClosed)
	assert.ErrorIs(t, c.Call(context.Background(), "ping", nil, nil), ErrClosed)
	assert.ErrorIs(t, c.Notify("ping", nil), ErrClosed)
	c.Close()
}

func TestCorrelatorSendFailure(t *testing.T) {
	sender := newCaptureSender()
	sender.err = errors.New("link down")
	c := NewCorrelator(sender, nil)

	assert.EqualError(t, c.Call(context.Background(), "ping", nil, nil), "link down")
	assert.Zero(t, c.Pending(), "failed send leaves no waiter")
}

func TestCorrelatorNotifyIsOneWay(t *testing.T) {
	sender := newCaptureSender()
	c := NewCorrelator(sender, nil)

	require.NoError(t, c.Notify("telemetry.write", map[string]int{"op": 1}))
	env := sender.next(t)

	assert.True(t, env.IsOneWay())
	assert.Equal(t, "telemetry.write", env.Method)
	assert.Zero(t, c.Pending())
}
