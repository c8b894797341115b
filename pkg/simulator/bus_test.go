package simulator

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/resource"
)

func TestBusConnectAndPing(t *testing.T) {
	bus := NewBus(Config{Nodes: []resource.DeviceID{"20501"}})
	ctx := context.Background()

	info, err := bus.Connect(ctx, "20501")
	require.NoError(t, err)
	assert.Equal(t, Firmware, info.Firmware)
	assert.Equal(t, "SIM-20501", info.Serial)

	require.NoError(t, bus.Ping(ctx, "20501"))
	assert.ErrorIs(t, bus.Ping(ctx, "99"), device.ErrDeviceNotFound)

	bus.Detach("20501")
	assert.ErrorIs(t, bus.Ping(ctx, "20501"), device.ErrDeviceNotFound)
}

func TestBusParametersFlashAndReset(t *testing.T) {
	bus := NewBus(Config{Nodes: []resource.DeviceID{"1"}})
	ctx := context.Background()

	require.NoError(t, bus.SetParameter(ctx, "1", 0x2001, 2.5))
	v, err := bus.GetParameter(ctx, "1", 0x2001)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = bus.GetParameter(ctx, "1", 0x7fff)
	assert.ErrorIs(t, err, device.ErrInvalidParam)

	state, _ := bus.State("1")
	assert.Equal(t, 1.0, state.Flash[0x2001], "not burned yet")

	require.NoError(t, bus.BurnFlash(ctx, "1"))
	state, _ = bus.State("1")
	assert.Equal(t, 2.5, state.Flash[0x2001])

	require.NoError(t, bus.FactoryReset(ctx, "1"))
	state, _ = bus.State("1")
	assert.Equal(t, 1.0, state.Parameters[0x2001])
	assert.Equal(t, 1.0, state.Flash[0x2001])
}

func TestBusIDAssignment(t *testing.T) {
	bus := NewBus(Config{Nodes: []resource.DeviceID{"20501", "20503"}})
	ctx := context.Background()

	require.NoError(t, bus.SetParameter(ctx, "20501", 0x2002, 1500))
	require.NoError(t, bus.IDAssignment(ctx, "20501", "20502"))

	assert.ErrorIs(t, bus.Ping(ctx, "20501"), device.ErrDeviceNotFound)
	v, err := bus.GetParameter(ctx, "20502", 0x2002)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, v, "node keeps its state")

	assert.ErrorIs(t, bus.IDAssignment(ctx, "20502", "20503"), device.ErrInvalidParam)
	assert.Equal(t, []resource.DeviceID{"20502", "20503"}, bus.Nodes())
}

func TestBusLatencyHonoursContext(t *testing.T) {
	bus := NewBus(Config{Nodes: []resource.DeviceID{"1"}, Latency: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Ping(ctx, "1"), device.ErrTimeout)
}

func TestBusSetpointCounts(t *testing.T) {
	bus := NewBus(Config{Nodes: []resource.DeviceID{"1"}})
	ctx := context.Background()

	require.NoError(t, bus.Setpoint(ctx, "1", 10))
	require.NoError(t, bus.Setpoint(ctx, "1", 12))

	state, ok := bus.State("1")
	require.True(t, ok)
	assert.Equal(t, 12.0, state.Setpoint)
	assert.Equal(t, 2, state.Setpoints)
}

func TestStreamEmitsSubscribedSignals(t *testing.T) {
	bus := NewBus(Config{Nodes: []resource.DeviceID{"1"}, SamplePeriod: 2 * time.Millisecond})
	require.NoError(t, bus.Setpoint(context.Background(), "1", 100))

	st, err := bus.OpenTelemetry(context.Background())
	require.NoError(t, err)

	require.NoError(t, st.Send(resource.TelemetryCommand{Op: resource.TelemetryStart}))
	require.NoError(t, st.Send(resource.TelemetryCommand{
		Op:     resource.TelemetryAdd,
		Signal: &resource.SignalRef{DeviceID: "1", SignalID: 3},
	}))

	sample, err := st.Recv()
	require.NoError(t, err)
	assert.Equal(t, resource.DeviceID("1"), sample.DeviceID)
	assert.Equal(t, resource.SignalID(3), sample.SignalID)
	assert.Equal(t, 100.0, sample.Value)

	require.NoError(t, st.CloseSend(context.Background()))
	for {
		if _, err := st.Recv(); err != nil {
			assert.ErrorIs(t, err, io.EOF)
			break
		}
	}
	assert.Error(t, st.Send(resource.TelemetryCommand{Op: resource.TelemetryStop}))
}

func TestStreamIgnoresUnknownSignalsAndNodes(t *testing.T) {
	bus := NewBus(Config{Nodes: []resource.DeviceID{"1"}, SamplePeriod: time.Millisecond})
	now := time.Now()

	bus.mu.Lock()
	defer bus.mu.Unlock()
	_, ok := bus.sample("1", 99, now)
	assert.False(t, ok)
	_, ok = bus.sample("2", 1, now)
	assert.False(t, ok)
	_, ok = bus.sample("1", 1, now)
	assert.True(t, ok)
}

func TestParseNodes(t *testing.T) {
	ids, err := ParseNodes(" 20501, 20502 ,,")
	require.NoError(t, err)
	assert.Equal(t, []resource.DeviceID{"20501", "20502"}, ids)

	ids, err = ParseNodes("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ParseNodes("1,2,1")
	assert.ErrorContains(t, err, "duplicate")
}

func TestBusSnapshotRestore(t *testing.T) {
	var persists int
	bus := NewBus(Config{
		Nodes:     []resource.DeviceID{"20501", "20502"},
		OnPersist: func() { persists++ },
	})
	ctx := context.Background()

	require.NoError(t, bus.SetParameter(ctx, "20501", 0x2002, 1500))
	assert.Zero(t, persists)
	require.NoError(t, bus.BurnFlash(ctx, "20501"))
	require.NoError(t, bus.SetParameter(ctx, "20501", 0x2003, 0.9))
	require.NoError(t, bus.IDAssignment(ctx, "20502", "20777"))
	assert.Equal(t, 2, persists)
	assert.ErrorIs(t, bus.BurnFlash(ctx, "99"), device.ErrDeviceNotFound)
	assert.Equal(t, 2, persists)

	state := bus.Snapshot()
	require.Len(t, state.Nodes, 2)
	assert.Equal(t, "20501", state.Nodes[0].ID)
	assert.Equal(t, 1500.0, state.Nodes[0].Flash[0x2002])
	assert.Equal(t, "20777", state.Nodes[1].ID)
	assert.Equal(t, "SIM-20502", state.Nodes[1].Serial)

	restarted := NewBus(Config{Nodes: []resource.DeviceID{"20501", "20502"}})
	restarted.Restore(state)
	assert.Equal(t, []resource.DeviceID{"20501", "20777"}, restarted.Nodes())

	v, err := restarted.GetParameter(ctx, "20501", 0x2002)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, v)
	v, err = restarted.GetParameter(ctx, "20501", 0x2003)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v, "unburned parameters are lost on restart")

	info, err := restarted.Connect(ctx, "20777")
	require.NoError(t, err)
	assert.Equal(t, "SIM-20502", info.Serial)
}
