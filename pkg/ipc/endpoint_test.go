package ipc

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/transport"
)

type eventCapture struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *eventCapture) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *eventCapture) messages() []log.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []log.Event
	for _, e := range c.events {
		if e.Message != nil {
			out = append(out, e)
		}
	}
	return out
}

type notification struct {
	event string
	value string
}

// pair connects a UI endpoint and a worker endpoint over a pipe and starts
// serving both.
func pair(t *testing.T, worker *Dispatcher, capture log.Logger) (ui, wk *Endpoint, notes chan notification) {
	t.Helper()
	a, b := net.Pipe()
	notes = make(chan notification, 8)

	ui = NewEndpoint(transport.NewConn(a, transport.Config{}), EndpointConfig{
		Role:           log.RoleUI,
		ProtocolLogger: capture,
		OnNotification: func(event string, args Args) {
			var v string
			_ = args.Decode(&v)
			notes <- notification{event, v}
		},
	})
	wk = NewEndpoint(transport.NewConn(b, transport.Config{}), EndpointConfig{
		Role:       log.RoleWorker,
		Dispatcher: worker,
	})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = ui.Serve(ctx) }()
	go func() { defer wg.Done(); _ = wk.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return ui, wk, notes
}

func TestEndpointRoundTrip(t *testing.T) {
	d := NewDispatcher(nil)
	d.HandleFunc("echo", func(_ context.Context, args Args) (any, error) {
		var s string
		if err := args.Decode(&s); err != nil {
			return nil, err
		}
		return s + "!", nil
	})
	d.HandleFunc("fail", func(context.Context, Args) (any, error) {
		return nil, errors.New("device busy")
	})

	capture := &eventCapture{}
	ui, _, _ := pair(t, d, capture)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var out string
	require.NoError(t, ui.Call(ctx, "echo", "hi", &out))
	assert.Equal(t, "hi!", out)

	err := ui.Call(ctx, "fail", nil, nil)
	var ipcErr *Error
	require.ErrorAs(t, err, &ipcErr)
	assert.Equal(t, "device busy", ipcErr.Message)

	msgs := capture.messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, log.DirectionOut, msgs[0].Direction)
	assert.Equal(t, log.RoleUI, msgs[0].LocalRole)
	assert.Equal(t, ui.ID(), msgs[0].ConnectionID)
	assert.NotNil(t, msgs[1].Message.Latency, "replies carry latency")
}

func TestEndpointNotificationsAndOneWay(t *testing.T) {
	d := NewDispatcher(nil)
	got := make(chan string, 1)
	d.HandleFunc("log", func(_ context.Context, args Args) (any, error) {
		var s string
		_ = args.Decode(&s)
		got <- s
		return nil, nil
	})

	ui, wk, notes := pair(t, d, nil)

	require.NoError(t, ui.Notify("log", "hello"))
	assert.Equal(t, "hello", <-got)

	var target Target
	require.NoError(t, target.Set(wk))
	require.NoError(t, target.Send("heartbeat", "ok"))
	assert.Equal(t, notification{"heartbeat", "ok"}, <-notes)
}

func TestEndpointCloseFailsPendingCalls(t *testing.T) {
	d := NewDispatcher(nil)
	block := make(chan struct{})
	d.Handle("hang", func(ctx context.Context, _ Args, reply ReplyFunc) {
		select {
		case <-block:
		case <-ctx.Done():
		}
	})
	defer close(block)

	ui, wk, _ := pair(t, d, nil)

	errc := make(chan error, 1)
	go func() { errc <- ui.Call(context.Background(), "hang", nil, nil) }()
	require.Eventually(t, func() bool { return ui.Correlator().Pending() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, wk.Close())
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("pending call not failed on link loss")
	}
	wk.Wait()
}
