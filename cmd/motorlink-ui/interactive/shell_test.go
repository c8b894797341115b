package interactive

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorlink/motorlink-go/pkg/ipc"
	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/service"
	"github.com/motorlink/motorlink-go/pkg/simulator"
	"github.com/motorlink/motorlink-go/pkg/transport"
)

// syncBuffer collects output written from the shell and from event
// handlers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

func setupShell(t *testing.T, nodes ...resource.DeviceID) (*Shell, *syncBuffer, *simulator.Bus) {
	t.Helper()
	bus := simulator.NewBus(simulator.Config{Nodes: nodes, SamplePeriod: 10 * time.Millisecond})
	a, b := net.Pipe()

	var remote *service.Remote
	ui := ipc.NewEndpoint(transport.NewConn(a, transport.Config{}), ipc.EndpointConfig{
		Role: log.RoleUI,
		OnNotification: func(event string, args ipc.Args) {
			remote.HandleNotification(event, args)
		},
	})
	remote = service.NewRemote(ui, nil)

	d := ipc.NewDispatcher(nil)
	wk := ipc.NewEndpoint(transport.NewConn(b, transport.Config{}), ipc.EndpointConfig{
		Role:       log.RoleWorker,
		Dispatcher: d,
	})
	var target ipc.Target
	require.NoError(t, target.Set(wk))

	cfg := service.DefaultConfig()
	cfg.PingInterval = 20 * time.Millisecond
	cfg.HeartbeatPeriod = 10 * time.Millisecond
	svc, err := service.New(bus, &target, cfg)
	require.NoError(t, err)
	service.Register(d, svc)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = ui.Serve(ctx) }()
	go func() { defer wg.Done(); _ = wk.Serve(ctx) }()
	t.Cleanup(func() {
		_ = svc.Close(context.Background())
		cancel()
		wg.Wait()
	})

	out := &syncBuffer{}
	sh := newShell(out, 2*time.Second)
	sh.Bind(remote)
	return sh, out, bus
}

func TestShellSession(t *testing.T) {
	sh, out, _ := setupShell(t, "20501")
	ctx := context.Background()

	assert.True(t, sh.Execute(ctx, "connect 20501"))
	assert.Contains(t, out.String(), "Connected to 20501 (firmware "+simulator.Firmware)

	assert.True(t, sh.Execute(ctx, "ping"))
	assert.Contains(t, out.String(), "pong in")

	sh.Execute(ctx, "status")
	assert.Contains(t, out.String(), "Device:     20501")
	assert.Contains(t, out.String(), "Resources:  0")

	sh.Execute(ctx, "signals")
	assert.Contains(t, out.String(), "current")

	out.Reset()
	sh.Execute(ctx, "disconnect")
	sh.Execute(ctx, "status")
	assert.Contains(t, out.String(), "Device:     (none)")
}

func TestShellReportsErrors(t *testing.T) {
	sh, out, _ := setupShell(t, "20501")
	ctx := context.Background()

	tests := []struct {
		line string
		want string
	}{
		{"ping", "Error: "},
		{"connect", "usage: connect <id>"},
		{"connect 99", "Error: "},
		{"param get nope", "invalid parameter key"},
		{"heartbeat on 20501 fast", "invalid setpoint"},
		{"telemetry add 20501 x", "invalid signal"},
		{"telemetry stop", "Error: "},
		{"samples maybe", "usage: samples on|off"},
		{"frobnicate", "Unknown command: frobnicate"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out.Reset()
			assert.True(t, sh.Execute(ctx, tt.line))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestShellParametersAndCANID(t *testing.T) {
	sh, out, bus := setupShell(t, "20501")
	ctx := context.Background()

	sh.Execute(ctx, "connect 20501")
	sh.Execute(ctx, "param set 0x2002 1500")
	out.Reset()
	sh.Execute(ctx, "param get 0x2002")
	assert.Contains(t, out.String(), "0x2002 = 1500")

	sh.Execute(ctx, "burn")
	assert.Contains(t, out.String(), "Parameters burned to flash")
	state, ok := bus.State("20501")
	require.True(t, ok)
	assert.Equal(t, 1500.0, state.Flash[0x2002])

	out.Reset()
	sh.Execute(ctx, "canid 20777")
	assert.NotContains(t, out.String(), "Error")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "[EVENT] Device 20501 is now 20777")
	}, time.Second, 5*time.Millisecond)

	out.Reset()
	sh.Execute(ctx, "status")
	assert.Contains(t, out.String(), "Device:     20777")
}

func TestShellHeartbeatAndTelemetry(t *testing.T) {
	sh, out, bus := setupShell(t, "20501")
	ctx := context.Background()

	sh.Execute(ctx, "connect 20501")
	sh.Execute(ctx, "heartbeat on 20501 12.5")
	assert.Eventually(t, func() bool {
		st, _ := bus.State("20501")
		return st.Setpoints > 1 && st.Setpoint == 12.5
	}, time.Second, 5*time.Millisecond)

	out.Reset()
	sh.Execute(ctx, "status")
	assert.Contains(t, out.String(), "Resources:  heartbeat:20501")

	sh.Execute(ctx, "heartbeat set 20501 3")
	assert.Eventually(t, func() bool {
		st, _ := bus.State("20501")
		return st.Setpoint == 3
	}, time.Second, 5*time.Millisecond)
	sh.Execute(ctx, "heartbeat off 20501")

	sh.Execute(ctx, "telemetry start")
	sh.Execute(ctx, "telemetry add 20501 1")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "[DATA]") && strings.Contains(out.String(), "20501/1 =")
	}, time.Second, 5*time.Millisecond)

	sh.Execute(ctx, "samples off")
	sh.Execute(ctx, "telemetry stop")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "[EVENT] Telemetry stop")
	}, time.Second, 5*time.Millisecond)
	assert.NotContains(t, out.String(), "Error")
}

func TestShellQuit(t *testing.T) {
	sh, _, _ := setupShell(t)
	ctx := context.Background()

	assert.True(t, sh.Execute(ctx, "   "))
	assert.True(t, sh.Execute(ctx, "help"))
	assert.False(t, sh.Execute(ctx, "quit"))
	assert.False(t, sh.Execute(ctx, "EXIT"))
}
