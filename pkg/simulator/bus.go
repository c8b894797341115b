package simulator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/persistence"
	"github.com/motorlink/motorlink-go/pkg/resource"
)

// DefaultSamplePeriod is the telemetry sample period when none is set.
const DefaultSamplePeriod = 100 * time.Millisecond

// Config configures a Bus.
type Config struct {
	// Nodes are the device ids present at start.
	Nodes []resource.DeviceID

	// SamplePeriod between telemetry samples.
	SamplePeriod time.Duration

	// Latency is added to every bus transaction.
	Latency time.Duration

	// Logger receives bus activity (optional).
	Logger *slog.Logger

	// OnPersist is called after a change to non-volatile node state: a
	// flash burn, a factory reset or a new bus id (optional).
	OnPersist func()
}

// Bus is a simulated CAN bus.
type Bus struct {
	samplePeriod time.Duration
	latency      time.Duration
	logger       *slog.Logger
	onPersist    func()
	start        time.Time

	mu    sync.Mutex
	nodes map[resource.DeviceID]*node
}

// NewBus creates a bus with the configured nodes attached.
func NewBus(cfg Config) *Bus {
	if cfg.SamplePeriod <= 0 {
		cfg.SamplePeriod = DefaultSamplePeriod
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &Bus{
		samplePeriod: cfg.SamplePeriod,
		latency:      cfg.Latency,
		logger:       logger,
		onPersist:    cfg.OnPersist,
		start:        time.Now(),
		nodes:        make(map[resource.DeviceID]*node),
	}
	for _, id := range cfg.Nodes {
		b.nodes[id] = newNode(id)
	}
	return b
}

// Attach plugs a factory-fresh node into the bus.
func (b *Bus) Attach(id resource.DeviceID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.nodes[id]; !ok {
		b.nodes[id] = newNode(id)
	}
}

// Detach unplugs a node. Subsequent calls for id fail with
// device.ErrDeviceNotFound.
func (b *Bus) Detach(id resource.DeviceID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.nodes, id)
}

// Nodes returns the ids on the bus in order.
func (b *Bus) Nodes() []resource.DeviceID {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := slices.Collect(maps.Keys(b.nodes))
	slices.Sort(ids)
	return ids
}

// State returns a snapshot of the node with id.
func (b *Bus) State(id resource.DeviceID) (NodeState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[id]
	if !ok {
		return NodeState{}, false
	}
	return n.state(), true
}

// transact waits for the bus latency, then runs fn on the node with id.
func (b *Bus) transact(ctx context.Context, id resource.DeviceID, fn func(n *node) error) error {
	if b.latency > 0 {
		select {
		case <-time.After(b.latency):
		case <-ctx.Done():
			return fmt.Errorf("node %s: %w", id, device.ErrTimeout)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[id]
	if !ok {
		return fmt.Errorf("node %s: %w", id, device.ErrDeviceNotFound)
	}
	return fn(n)
}

// Connect implements device.Controller.
func (b *Bus) Connect(ctx context.Context, id resource.DeviceID) (*device.Info, error) {
	var info *device.Info
	err := b.transact(ctx, id, func(n *node) error {
		n.connected = true
		info = &device.Info{ID: id, Firmware: Firmware, Serial: n.serial}
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.logger.Debug("sim: node connected", "node", id)
	return info, nil
}

// Disconnect implements device.Controller.
func (b *Bus) Disconnect(ctx context.Context, id resource.DeviceID) error {
	return b.transact(ctx, id, func(n *node) error {
		n.connected = false
		return nil
	})
}

// Ping implements device.Controller.
func (b *Bus) Ping(ctx context.Context, id resource.DeviceID) error {
	return b.transact(ctx, id, func(*node) error { return nil })
}

// SetParameter implements device.Controller.
func (b *Bus) SetParameter(ctx context.Context, id resource.DeviceID, key device.ParameterKey, value float64) error {
	return b.transact(ctx, id, func(n *node) error {
		n.params[key] = value
		return nil
	})
}

// GetParameter implements device.Controller. Unknown keys fail with
// device.ErrInvalidParam.
func (b *Bus) GetParameter(ctx context.Context, id resource.DeviceID, key device.ParameterKey) (float64, error) {
	var v float64
	err := b.transact(ctx, id, func(n *node) error {
		val, ok := n.params[key]
		if !ok {
			return fmt.Errorf("parameter 0x%04x: %w", uint16(key), device.ErrInvalidParam)
		}
		v = val
		return nil
	})
	return v, err
}

// Setpoint implements device.Controller.
func (b *Bus) Setpoint(ctx context.Context, id resource.DeviceID, value float64) error {
	return b.transact(ctx, id, func(n *node) error {
		n.setpoint = value
		n.setpoints++
		return nil
	})
}

// BurnFlash implements device.Controller.
func (b *Bus) BurnFlash(ctx context.Context, id resource.DeviceID) error {
	err := b.transact(ctx, id, func(n *node) error {
		n.flash = maps.Clone(n.params)
		return nil
	})
	return b.persisted(err)
}

// FactoryReset implements device.Controller.
func (b *Bus) FactoryReset(ctx context.Context, id resource.DeviceID) error {
	err := b.transact(ctx, id, func(n *node) error {
		n.params = maps.Clone(factoryParameters)
		n.flash = maps.Clone(factoryParameters)
		n.setpoint = 0
		return nil
	})
	return b.persisted(err)
}

// IDAssignment implements device.Controller. The node keeps its state under
// the new id.
func (b *Bus) IDAssignment(ctx context.Context, id, newID resource.DeviceID) error {
	if newID == "" {
		return fmt.Errorf("empty node id: %w", device.ErrInvalidParam)
	}
	err := b.transact(ctx, id, func(n *node) error {
		if id == newID {
			return nil
		}
		if _, taken := b.nodes[newID]; taken {
			return fmt.Errorf("node id %s already on bus: %w", newID, device.ErrInvalidParam)
		}
		delete(b.nodes, id)
		b.nodes[newID] = n
		b.logger.Info("sim: node re-addressed", "from", id, "to", newID)
		return nil
	})
	return b.persisted(err)
}

// persisted runs the OnPersist hook after a successful change. Called
// without b.mu held.
func (b *Bus) persisted(err error) error {
	if err == nil && b.onPersist != nil {
		b.onPersist()
	}
	return err
}

// Snapshot returns the non-volatile state of every node.
func (b *Bus) Snapshot() *persistence.BusState {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := slices.Sorted(maps.Keys(b.nodes))
	state := &persistence.BusState{Nodes: make([]persistence.NodeRecord, 0, len(ids))}
	for _, id := range ids {
		n := b.nodes[id]
		rec := persistence.NodeRecord{
			ID:     id.String(),
			Serial: n.serial,
			Flash:  make(map[uint16]float64, len(n.flash)),
		}
		for k, v := range n.flash {
			rec.Flash[uint16(k)] = v
		}
		state.Nodes = append(state.Nodes, rec)
	}
	return state
}

// Restore replaces the nodes on the bus with the saved ones, as after a
// power cycle: every node comes up disconnected with its flash loaded.
func (b *Bus) Restore(state *persistence.BusState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nodes = make(map[resource.DeviceID]*node, len(state.Nodes))
	for _, rec := range state.Nodes {
		id := resource.DeviceID(rec.ID)
		n := newNode(id)
		if rec.Serial != "" {
			n.serial = rec.Serial
		}
		if len(rec.Flash) > 0 {
			n.flash = make(map[device.ParameterKey]float64, len(rec.Flash))
			for k, v := range rec.Flash {
				n.flash[device.ParameterKey(k)] = v
			}
			n.params = maps.Clone(n.flash)
		}
		b.nodes[id] = n
	}
	b.logger.Info("sim: bus restored", "nodes", len(b.nodes))
}

// TelemetryList implements device.Controller.
func (b *Bus) TelemetryList(ctx context.Context, id resource.DeviceID) ([]device.SignalInfo, error) {
	var out []device.SignalInfo
	err := b.transact(ctx, id, func(*node) error {
		out = append(out, signalCatalog...)
		return nil
	})
	return out, err
}

// OpenTelemetry implements device.Controller.
func (b *Bus) OpenTelemetry(_ context.Context) (resource.Stream, error) {
	s := newStream(b)
	go s.run()
	return s, nil
}

// sample computes the current value of a signal on a node. Caller holds b.mu.
func (b *Bus) sample(id resource.DeviceID, signal resource.SignalID, now time.Time) (resource.Sample, bool) {
	n, ok := b.nodes[id]
	if !ok || !knownSignal(signal) {
		return resource.Sample{}, false
	}

	t := now.Sub(b.start).Seconds()
	var v float64
	switch signal {
	case 1:
		v = 0.1*math.Abs(n.setpoint) + 0.05*math.Sin(t)
	case 2:
		v = 24 + 0.2*math.Sin(t/3)
	case 3:
		v = n.setpoint
	case 4:
		v = 35 + 0.01*math.Abs(n.setpoint)
	}
	return resource.Sample{DeviceID: id, SignalID: signal, Value: v, Timestamp: now}, true
}

// ParseNodes parses a comma separated list of node ids. Blank entries are
// skipped; duplicates are rejected.
func ParseNodes(s string) ([]resource.DeviceID, error) {
	var ids []resource.DeviceID
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id := resource.DeviceID(part)
		if slices.Contains(ids, id) {
			return nil, fmt.Errorf("duplicate node id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
