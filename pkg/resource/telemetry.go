package resource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// SignalID identifies a telemetry signal within a device's catalog.
type SignalID uint16

// SignalRef names one signal on one device.
type SignalRef struct {
	DeviceID DeviceID `cbor:"1,keyasint"`
	SignalID SignalID `cbor:"2,keyasint"`
}

// TelemetryOp is a stream control operation.
type TelemetryOp uint8

const (
	TelemetryStart TelemetryOp = iota + 1
	TelemetryStop
	TelemetryAdd
	TelemetryRemove
)

// String returns the operation name.
func (o TelemetryOp) String() string {
	switch o {
	case TelemetryStart:
		return "START"
	case TelemetryStop:
		return "STOP"
	case TelemetryAdd:
		return "ADD"
	case TelemetryRemove:
		return "REMOVE"
	default:
		return "UNKNOWN"
	}
}

// TelemetryCommand is a control message written to the stream.
type TelemetryCommand struct {
	Op     TelemetryOp `cbor:"1,keyasint"`
	Signal *SignalRef  `cbor:"2,keyasint,omitempty"`
}

// Sample is one telemetry value pushed by the device.
type Sample struct {
	DeviceID  DeviceID  `cbor:"1,keyasint"`
	SignalID  SignalID  `cbor:"2,keyasint"`
	Value     float64   `cbor:"3,keyasint"`
	Timestamp time.Time `cbor:"4,keyasint"`
}

// Stream is the duplex transport handle a Telemetry resource owns.
type Stream interface {
	// Send writes a control command.
	Send(cmd TelemetryCommand) error

	// Recv blocks for the next sample. It returns io.EOF once the
	// transport has confirmed the stream is closed.
	Recv() (*Sample, error)

	// CloseSend half-closes the stream.
	CloseSend(ctx context.Context) error
}

// EventType classifies telemetry listener events.
type EventType uint8

const (
	EventStart EventType = iota + 1
	EventData
	EventError
	EventStop
)

// String returns the event type name.
func (e EventType) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventData:
		return "data"
	case EventError:
		return "error"
	case EventStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Event is delivered to a telemetry Listener.
type Event struct {
	Type   EventType
	Sample *Sample
	Err    error
}

// Listener receives telemetry events. It is called from the stream's
// receive goroutine and must not block for long.
type Listener func(Event)

// SignalEntry is one record of the subscription history.
type SignalEntry struct {
	Op     TelemetryOp
	Signal SignalRef
}

// TelemetryConfig configures a Telemetry resource.
type TelemetryConfig struct {
	// Logger receives stream failures (optional).
	Logger *slog.Logger
}

type telemetryState uint8

const (
	telemetryIdle telemetryState = iota
	telemetryRunning
	telemetryStopped
)

// Telemetry owns a telemetry stream subscription.
// It is a fixed resource: it cannot follow a re-keyed device.
type Telemetry struct {
	stream   Stream
	listener Listener
	logger   *slog.Logger

	mu        sync.Mutex
	state     telemetryState
	destroyed bool
	history   []SignalEntry
	recvDone  chan struct{}
}

// NewTelemetry wraps stream. Nothing is sent until Start.
func NewTelemetry(stream Stream, listener Listener, cfg TelemetryConfig) *Telemetry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if listener == nil {
		listener = func(Event) {}
	}
	return &Telemetry{
		stream:   stream,
		listener: listener,
		logger:   logger,
	}
}

// Start wires stream events to the listener and sends the start command.
// It may be called at most once. If the start command cannot be sent the
// stream is closed and the resource ends up stopped.
func (t *Telemetry) Start() error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return ErrDestroyed
	}
	if t.state != telemetryIdle {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.state = telemetryRunning
	t.recvDone = make(chan struct{})
	done := t.recvDone
	t.mu.Unlock()

	go t.receive(done)

	if err := t.stream.Send(TelemetryCommand{Op: TelemetryStart}); err != nil {
		// The stream is unusable: close it so the receive loop ends.
		t.mu.Lock()
		t.state = telemetryStopped
		t.mu.Unlock()
		return errors.Join(err, t.stream.CloseSend(context.Background()))
	}
	t.listener(Event{Type: EventStart})
	return nil
}

// Stop sends the stop command, half-closes the stream and waits until the
// transport confirms closure.
func (t *Telemetry) Stop(ctx context.Context) error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return ErrDestroyed
	}
	t.mu.Unlock()
	return t.stop(ctx)
}

func (t *Telemetry) stop(ctx context.Context) error {
	t.mu.Lock()
	switch t.state {
	case telemetryIdle:
		t.mu.Unlock()
		return ErrNotStarted
	case telemetryStopped:
		t.mu.Unlock()
		return nil
	}
	t.state = telemetryStopped
	done := t.recvDone
	t.mu.Unlock()

	sendErr := t.stream.Send(TelemetryCommand{Op: TelemetryStop})
	if err := t.stream.CloseSend(ctx); err != nil {
		return errors.Join(sendErr, err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	t.listener(Event{Type: EventStop})
	return sendErr
}

// AddSignal subscribes to a signal. It does not wait for the device.
func (t *Telemetry) AddSignal(device DeviceID, signal SignalID) error {
	return t.command(TelemetryAdd, SignalRef{DeviceID: device, SignalID: signal})
}

// RemoveSignal unsubscribes from a signal. It does not wait for the device.
func (t *Telemetry) RemoveSignal(device DeviceID, signal SignalID) error {
	return t.command(TelemetryRemove, SignalRef{DeviceID: device, SignalID: signal})
}

func (t *Telemetry) command(op TelemetryOp, ref SignalRef) error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return ErrDestroyed
	}
	if t.state == telemetryStopped {
		t.mu.Unlock()
		return ErrStopped
	}
	t.history = append(t.history, SignalEntry{Op: op, Signal: ref})
	t.mu.Unlock()

	return t.stream.Send(TelemetryCommand{Op: op, Signal: &ref})
}

// History returns every add and remove in the order they were issued.
func (t *Telemetry) History() []SignalEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SignalEntry, len(t.history))
	copy(out, t.history)
	return out
}

// Signals returns the signals currently subscribed, ordered by the add that
// made each one current. A remove without a matching add is ignored.
func (t *Telemetry) Signals() []SignalRef {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []SignalRef
	for _, e := range t.history {
		idx := -1
		for i, ref := range out {
			if ref == e.Signal {
				idx = i
				break
			}
		}
		switch e.Op {
		case TelemetryAdd:
			if idx < 0 {
				out = append(out, e.Signal)
			}
		case TelemetryRemove:
			if idx >= 0 {
				out = append(out[:idx], out[idx+1:]...)
			}
		}
	}
	return out
}

// Pause has nothing to drain: stream traffic is driven by the device.
func (t *Telemetry) Pause() (Done, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return nil, ErrDestroyed
	}
	return Completed(), nil
}

// Resume is a no-op for streams.
func (t *Telemetry) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return ErrDestroyed
	}
	return nil
}

// Destroy stops the stream if it is running.
func (t *Telemetry) Destroy(ctx context.Context) error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return ErrDestroyed
	}
	t.destroyed = true
	running := t.state == telemetryRunning
	t.mu.Unlock()

	if !running {
		return nil
	}
	return t.stop(ctx)
}

func (t *Telemetry) receive(done chan struct{}) {
	defer close(done)

	for {
		sample, err := t.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			t.logger.Warn("telemetry stream failed", "error", err)
			t.listener(Event{Type: EventError, Err: err})
			return
		}
		t.listener(Event{Type: EventData, Sample: sample})
	}
}

var _ Resource = (*Telemetry)(nil)
