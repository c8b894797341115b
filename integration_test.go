package motorlink_test

import (
	"context"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorlink/motorlink-go/internal/worker"
	"github.com/motorlink/motorlink-go/pkg/connection"
	"github.com/motorlink/motorlink-go/pkg/discovery"
	"github.com/motorlink/motorlink-go/pkg/ipc"
	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/persistence"
	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/service"
	"github.com/motorlink/motorlink-go/pkg/session"
	"github.com/motorlink/motorlink-go/pkg/simulator"
	"github.com/motorlink/motorlink-go/pkg/transport"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []service.Event
}

func (r *eventRecorder) record(ev service.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) count(pred func(service.Event) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if pred(ev) {
			n++
		}
	}
	return n
}

// stack is a device daemon, a worker in front of it and a UI remote, each
// on its own socket.
type stack struct {
	bus    *simulator.Bus
	remote *service.Remote
	events *eventRecorder
	ui     *ipc.Endpoint
	protoc *captureLogger

	workerDone chan error
	daemonDone chan error
}

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureLogger) methods(role log.Role) map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int)
	for _, e := range c.events {
		if e.LocalRole == role && e.Message != nil && e.Message.Method != "" {
			out[e.Message.Method]++
		}
	}
	return out
}

func startStack(t *testing.T, ctx context.Context, bus *simulator.Bus) *stack {
	t.Helper()
	dir := t.TempDir()
	s := &stack{
		bus:        bus,
		events:     &eventRecorder{},
		protoc:     &captureLogger{},
		workerDone: make(chan error, 1),
		daemonDone: make(chan error, 1),
	}

	devdPath := filepath.Join(dir, "devd.sock")
	devdLn, err := transport.Listen(transport.NetworkUnix, devdPath, transport.Config{})
	require.NoError(t, err)
	go func() { s.daemonDone <- worker.ServeController(ctx, devdLn, bus, nil, s.protoc) }()

	ctrl, err := worker.DialController(ctx, &connection.Dialer{
		Network:     transport.NetworkUnix,
		Addr:        devdPath,
		MaxAttempts: 20,
	}, 0, nil, s.protoc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Close() })

	workerLn, err := transport.Listen(transport.NetworkTCP, "127.0.0.1:0", transport.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = workerLn.Close() })

	cfg := service.DefaultConfig()
	cfg.PingInterval = 20 * time.Millisecond
	cfg.HeartbeatPeriod = 10 * time.Millisecond
	go func() {
		s.workerDone <- worker.Run(ctx, workerLn, ctrl, worker.Config{Service: cfg, ProtocolLogger: s.protoc})
	}()

	conn, err := (&connection.Dialer{
		Network:     transport.NetworkTCP,
		Addr:        workerLn.Addr().String(),
		MaxAttempts: 20,
	}).DialContext(ctx)
	require.NoError(t, err)

	s.ui = ipc.NewEndpoint(conn, ipc.EndpointConfig{
		Role:           log.RoleUI,
		ProtocolLogger: s.protoc,
		OnNotification: func(event string, args ipc.Args) {
			s.remote.HandleNotification(event, args)
		},
	})
	s.remote = service.NewRemote(s.ui, nil)
	s.remote.OnEvent(s.events.record)
	go func() { _ = s.ui.Serve(ctx) }()
	return s
}

func isSample(device resource.DeviceID, signal resource.SignalID) func(service.Event) bool {
	return func(ev service.Event) bool {
		return ev.Type == service.EventTelemetry && ev.Sample != nil &&
			ev.Sample.DeviceID == device && ev.Sample.SignalID == signal
	}
}

// TestE2E_FullChain drives a device from the UI remote through the worker
// service and the daemon link down to the simulated bus.
func TestE2E_FullChain(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bus := simulator.NewBus(simulator.Config{
		Nodes:        []resource.DeviceID{"20501", "20502"},
		SamplePeriod: 5 * time.Millisecond,
	})
	s := startStack(t, ctx, bus)

	info, err := s.remote.Connect(ctx, "20501")
	require.NoError(t, err)
	assert.Equal(t, simulator.Firmware, info.Firmware)

	require.NoError(t, s.remote.EnableHeartbeat(ctx, "20501", 4))
	require.NoError(t, s.remote.StartTelemetry(ctx))
	require.NoError(t, s.remote.AddSignal(ctx, "20501", 2))
	require.Eventually(t, func() bool { return s.events.count(isSample("20501", 2)) > 0 },
		2*time.Second, 5*time.Millisecond)

	// A live stream pins the device to its id.
	assert.ErrorIs(t, s.remote.ChangeCANID(ctx, "20700"), session.ErrNotReassignable)
	require.NoError(t, s.remote.StopTelemetry(ctx))

	// The heartbeat follows the device to its new id.
	require.NoError(t, s.remote.ChangeCANID(ctx, "20700"))
	assert.Equal(t, 1, s.events.count(func(ev service.Event) bool {
		return ev.Type == service.EventIDChanged && ev.PreviousID == "20501" && ev.DeviceID == "20700"
	}))

	require.NoError(t, s.remote.StartTelemetry(ctx))
	require.NoError(t, s.remote.AddSignal(ctx, "20700", 2))
	st, err := s.remote.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, resource.DeviceID("20700"), st.Device)
	assert.False(t, st.Paused)
	assert.Contains(t, st.Signals, resource.SignalRef{DeviceID: "20700", SignalID: 2})

	require.Eventually(t, func() bool { return s.events.count(isSample("20700", 2)) > 0 },
		2*time.Second, 5*time.Millisecond)
	before, _ := bus.State("20700")
	require.Eventually(t, func() bool {
		now, _ := bus.State("20700")
		return now.Setpoints > before.Setpoints && now.Setpoint == 4
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.remote.SetParameter(ctx, 0x2004, 75))
	require.NoError(t, s.remote.BurnFlash(ctx))
	node, _ := bus.State("20700")
	assert.Equal(t, 75.0, node.Flash[0x2004])

	// Switching devices drops every resource of the old one.
	_, err = s.remote.Connect(ctx, "20502")
	require.NoError(t, err)
	st, err = s.remote.Status(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Resources)
	_, err = s.remote.GetParameter(ctx, 0x2004)
	require.NoError(t, err)

	require.NoError(t, s.ui.Close())
	require.NoError(t, <-s.workerDone)
	node, _ = bus.State("20502")
	assert.False(t, node.Connected)

	cancel()
	assert.NoError(t, <-s.daemonDone)

	// Every process captured its side of the traffic.
	assert.Positive(t, s.protoc.methods(log.RoleUI)[service.MethodChangeCANID])
	assert.Positive(t, s.protoc.methods(log.RoleWorker)["idAssignment"])
	assert.Positive(t, s.protoc.methods(log.RoleDaemon)["idAssignment"])
}

// TestE2E_ErrorsCrossEveryBoundary checks that failures keep their identity
// from the bus to the UI.
func TestE2E_ErrorsCrossEveryBoundary(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := startStack(t, ctx, simulator.NewBus(simulator.Config{Nodes: []resource.DeviceID{"20501"}}))

	assert.ErrorIs(t, s.remote.Ping(ctx), session.ErrNoDevice)

	_, err := s.remote.Connect(ctx, "99")
	require.Error(t, err)

	_, err = s.remote.Connect(ctx, "20501")
	require.NoError(t, err)
	assert.ErrorIs(t, s.remote.StopTelemetry(ctx), service.ErrTelemetryNotStarted)
	assert.ErrorIs(t, s.remote.DisableHeartbeat(ctx, "20501"), service.ErrHeartbeatNotEnabled)
	require.NoError(t, s.remote.EnableHeartbeat(ctx, "20501", 1))
	assert.ErrorIs(t, s.remote.EnableHeartbeat(ctx, "20501", 1), session.ErrDuplicateResource)
}

// TestE2E_UIWaitsForWorker starts the UI before the worker listens.
func TestE2E_UIWaitsForWorker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path := filepath.Join(t.TempDir(), "worker.sock")
	var retries int
	dialed := make(chan *transport.Conn, 1)
	go func() {
		conn, err := (&connection.Dialer{
			Network: transport.NetworkUnix,
			Addr:    path,
			Backoff: connection.NewBackoffWithConfig(connection.BackoffConfig{
				Initial: 5 * time.Millisecond,
				Max:     20 * time.Millisecond,
			}),
			OnRetry: func(int, time.Duration, error) { retries++ },
		}).DialContext(ctx)
		if err == nil {
			dialed <- conn
		}
		close(dialed)
	}()

	time.Sleep(50 * time.Millisecond)
	ln, err := transport.Listen(transport.NetworkUnix, path, transport.Config{})
	require.NoError(t, err)
	defer ln.Close()

	bus := simulator.NewBus(simulator.Config{Nodes: []resource.DeviceID{"20501"}})
	workerDone := make(chan error, 1)
	go func() { workerDone <- worker.Run(ctx, ln, bus, worker.Config{Service: service.DefaultConfig()}) }()

	conn, ok := <-dialed
	require.True(t, ok, "dialer gave up")
	assert.Positive(t, retries)

	ui := ipc.NewEndpoint(conn, ipc.EndpointConfig{Role: log.RoleUI})
	go func() { _ = ui.Serve(ctx) }()
	remote := service.NewRemote(ui, nil)

	_, err = remote.Connect(ctx, "20501")
	require.NoError(t, err)
	require.NoError(t, remote.Ping(ctx))

	require.NoError(t, ui.Close())
	assert.NoError(t, <-workerDone)
}

// TestE2E_FlashSurvivesDaemonRestart persists burned parameters and ids
// between two bus instances.
func TestE2E_FlashSurvivesDaemonRestart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := persistence.NewBusStateStore(filepath.Join(t.TempDir(), "bus.json"))
	var bus *simulator.Bus
	bus = simulator.NewBus(simulator.Config{
		Nodes: []resource.DeviceID{"20501"},
		OnPersist: func() {
			require.NoError(t, store.Save(bus.Snapshot()))
		},
	})

	svc, err := service.New(bus, nil, service.DefaultConfig())
	require.NoError(t, err)
	_, err = svc.Connect(ctx, "20501")
	require.NoError(t, err)
	require.NoError(t, svc.SetParameter(ctx, 0x2001, 2.5))
	require.NoError(t, svc.BurnFlash(ctx))
	require.NoError(t, svc.ChangeCANID(ctx, "20600"))
	require.NoError(t, svc.Close(ctx))

	state, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, state)

	restarted := simulator.NewBus(simulator.Config{})
	restarted.Restore(state)
	assert.Equal(t, []resource.DeviceID{"20600"}, restarted.Nodes())

	svc, err = service.New(restarted, nil, service.DefaultConfig())
	require.NoError(t, err)
	defer svc.Close(ctx)
	_, err = svc.Connect(ctx, "20600")
	require.NoError(t, err)
	v, err := svc.GetParameter(ctx, 0x2001)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)
}

// TestE2E_Discovery advertises a worker and finds it over mDNS.
func TestE2E_Discovery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adv := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
	info := &discovery.WorkerInfo{
		Instance: "e2e-worker",
		Port:     7400,
		Firmware: simulator.Firmware,
		Nodes:    []resource.DeviceID{"20501"},
	}
	if err := adv.Advertise(ctx, info); err != nil {
		t.Skipf("mDNS unavailable: %v", err)
	}
	defer adv.Stop()

	browseCtx, browseCancel := context.WithTimeout(ctx, 5*time.Second)
	defer browseCancel()
	found, err := discovery.FindWorker(browseCtx, discovery.NewMDNSBrowser(discovery.BrowserConfig{}))
	if err != nil {
		t.Skipf("no mDNS responses on this host: %v", err)
	}
	assert.Equal(t, uint16(7400), found.Port)
	assert.Equal(t, simulator.Firmware, found.Firmware)
	_, _, err = net.SplitHostPort(found.Addr())
	assert.NoError(t, err)
}
