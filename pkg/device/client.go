package device

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/motorlink/motorlink-go/pkg/ipc"
	"github.com/motorlink/motorlink-go/pkg/resource"
)

// DefaultStreamBuffer is the number of samples buffered per stream.
const DefaultStreamBuffer = 64

// Caller issues calls to the worker. Implemented by ipc.Endpoint and
// ipc.Correlator.
type Caller interface {
	Call(ctx context.Context, method string, args, result any) error
	Notify(method string, args any) error
}

// Client implements Controller by calling a worker process.
// Telemetry notifications must be fed to HandleNotification.
type Client struct {
	caller Caller
	logger *slog.Logger
	buffer int

	mu      sync.Mutex
	streams map[uint32]*clientStream
}

// NewClient creates a client. A buffer of zero uses DefaultStreamBuffer.
func NewClient(caller Caller, buffer int, logger *slog.Logger) *Client {
	if buffer <= 0 {
		buffer = DefaultStreamBuffer
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		caller:  caller,
		logger:  logger,
		buffer:  buffer,
		streams: make(map[uint32]*clientStream),
	}
}

// Connect implements Controller.
func (c *Client) Connect(ctx context.Context, id resource.DeviceID) (*Info, error) {
	var info Info
	if err := c.caller.Call(ctx, MethodConnect, DeviceRequest{Device: id}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Disconnect implements Controller.
func (c *Client) Disconnect(ctx context.Context, id resource.DeviceID) error {
	return c.caller.Call(ctx, MethodDisconnect, DeviceRequest{Device: id}, nil)
}

// Ping implements Controller.
func (c *Client) Ping(ctx context.Context, id resource.DeviceID) error {
	return c.caller.Call(ctx, MethodPing, DeviceRequest{Device: id}, nil)
}

// SetParameter implements Controller.
func (c *Client) SetParameter(ctx context.Context, id resource.DeviceID, key ParameterKey, value float64) error {
	return c.caller.Call(ctx, MethodSetParameter, ParameterRequest{Device: id, Key: key, Value: value}, nil)
}

// GetParameter implements Controller.
func (c *Client) GetParameter(ctx context.Context, id resource.DeviceID, key ParameterKey) (float64, error) {
	var resp ParameterResponse
	if err := c.caller.Call(ctx, MethodGetParameter, ParameterRequest{Device: id, Key: key}, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// Setpoint implements Controller.
func (c *Client) Setpoint(ctx context.Context, id resource.DeviceID, value float64) error {
	return c.caller.Call(ctx, MethodSetpoint, SetpointRequest{Device: id, Value: value}, nil)
}

// BurnFlash implements Controller.
func (c *Client) BurnFlash(ctx context.Context, id resource.DeviceID) error {
	return c.caller.Call(ctx, MethodBurnFlash, DeviceRequest{Device: id}, nil)
}

// FactoryReset implements Controller.
func (c *Client) FactoryReset(ctx context.Context, id resource.DeviceID) error {
	return c.caller.Call(ctx, MethodFactoryReset, DeviceRequest{Device: id}, nil)
}

// IDAssignment implements Controller.
func (c *Client) IDAssignment(ctx context.Context, id, newID resource.DeviceID) error {
	return c.caller.Call(ctx, MethodIDAssignment, IDAssignmentRequest{Device: id, NewID: newID}, nil)
}

// TelemetryList implements Controller.
func (c *Client) TelemetryList(ctx context.Context, id resource.DeviceID) ([]SignalInfo, error) {
	var signals []SignalInfo
	if err := c.caller.Call(ctx, MethodTelemetryList, DeviceRequest{Device: id}, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// OpenTelemetry implements Controller.
func (c *Client) OpenTelemetry(ctx context.Context) (resource.Stream, error) {
	var ref StreamRef
	if err := c.caller.Call(ctx, MethodTelemetryOpen, nil, &ref); err != nil {
		return nil, err
	}

	s := &clientStream{
		client:  c,
		id:      ref.Stream,
		samples: make(chan *resource.Sample, c.buffer),
		closed:  make(chan struct{}),
	}

	c.mu.Lock()
	c.streams[ref.Stream] = s
	c.mu.Unlock()
	return s, nil
}

// HandleNotification routes telemetry notifications to their stream. It
// reports whether the event was a telemetry event.
func (c *Client) HandleNotification(event string, args ipc.Args) bool {
	switch event {
	case EventTelemetrySample:
		var msg StreamSample
		if err := args.Decode(&msg); err != nil {
			c.logger.Warn("device: bad telemetry sample", "error", err)
			return true
		}
		if s := c.stream(msg.Stream); s != nil {
			s.push(&msg.Sample)
		}
		return true

	case EventTelemetryClosed:
		var msg StreamClosed
		if err := args.Decode(&msg); err != nil {
			c.logger.Warn("device: bad telemetry close", "error", err)
			return true
		}
		c.mu.Lock()
		s := c.streams[msg.Stream]
		delete(c.streams, msg.Stream)
		c.mu.Unlock()
		if s != nil {
			var err error
			if msg.Error != "" {
				err = errors.New(msg.Error)
			}
			s.finish(err)
		}
		return true
	}
	return false
}

// CloseStreams fails every open stream with err. Used when the link to the
// worker is lost.
func (c *Client) CloseStreams(err error) {
	c.mu.Lock()
	streams := c.streams
	c.streams = make(map[uint32]*clientStream)
	c.mu.Unlock()

	for _, s := range streams {
		s.finish(err)
	}
}

func (c *Client) stream(id uint32) *clientStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams[id]
}

// clientStream is the UI side of a telemetry stream.
type clientStream struct {
	client  *Client
	id      uint32
	samples chan *resource.Sample

	once   sync.Once
	closed chan struct{}
	err    error // written before closed is closed
}

func (s *clientStream) Send(cmd resource.TelemetryCommand) error {
	return s.client.caller.Notify(MethodTelemetryWrite, StreamWrite{Stream: s.id, Command: cmd})
}

func (s *clientStream) Recv() (*resource.Sample, error) {
	select {
	case sample := <-s.samples:
		return sample, nil
	default:
	}

	select {
	case sample := <-s.samples:
		return sample, nil
	case <-s.closed:
		// drain anything that raced with the close
		select {
		case sample := <-s.samples:
			return sample, nil
		default:
		}
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
}

func (s *clientStream) CloseSend(ctx context.Context) error {
	return s.client.caller.Call(ctx, MethodTelemetryEnd, StreamRef{Stream: s.id}, nil)
}

func (s *clientStream) push(sample *resource.Sample) {
	select {
	case s.samples <- sample:
	default:
		s.client.logger.Debug("device: telemetry buffer full, dropping sample",
			"stream", s.id,
			"device", sample.DeviceID,
			"signal", sample.SignalID)
	}
}

func (s *clientStream) finish(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.closed)
	})
}

var (
	_ Controller      = (*Client)(nil)
	_ resource.Stream = (*clientStream)(nil)
)
