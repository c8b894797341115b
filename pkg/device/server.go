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

// Server is the worker side of the device RPC surface.
type Server struct {
	ctrl   Controller
	target *ipc.Target
	logger *slog.Logger

	mu      sync.Mutex
	nextID  uint32
	streams map[uint32]resource.Stream
	pumps   sync.WaitGroup
}

// Serve registers handlers on d that forward to ctrl. Telemetry samples are
// published on target, which must be set before the first stream opens.
func Serve(d *ipc.Dispatcher, ctrl Controller, target *ipc.Target) *Server {
	s := &Server{
		ctrl:    ctrl,
		target:  target,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		streams: make(map[uint32]resource.Stream),
	}

	d.HandleFunc(MethodConnect, s.handleConnect)
	d.HandleFunc(MethodDisconnect, s.device(ctrl.Disconnect))
	d.HandleFunc(MethodPing, s.device(ctrl.Ping))
	d.HandleFunc(MethodSetParameter, s.handleSetParameter)
	d.HandleFunc(MethodGetParameter, s.handleGetParameter)
	d.HandleFunc(MethodSetpoint, s.handleSetpoint)
	d.HandleFunc(MethodBurnFlash, s.device(ctrl.BurnFlash))
	d.HandleFunc(MethodFactoryReset, s.device(ctrl.FactoryReset))
	d.HandleFunc(MethodIDAssignment, s.handleIDAssignment)
	d.HandleFunc(MethodTelemetryList, s.handleTelemetryList)
	d.HandleFunc(MethodTelemetryOpen, s.handleTelemetryOpen)
	d.HandleFunc(MethodTelemetryWrite, s.handleTelemetryWrite)
	d.HandleFunc(MethodTelemetryEnd, s.handleTelemetryEnd)
	return s
}

// SetLogger sets the logger for stream failures.
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// OpenStreams returns the number of open telemetry streams.
func (s *Server) OpenStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

// Close half-closes every open stream and waits for their pumps to finish.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	streams := make([]resource.Stream, 0, len(s.streams))
	for _, st := range s.streams {
		streams = append(streams, st)
	}
	s.mu.Unlock()

	var errs []error
	for _, st := range streams {
		if err := st.CloseSend(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.pumps.Wait()
	return errors.Join(errs...)
}

// device adapts a Controller method that only takes a device id.
func (s *Server) device(fn func(context.Context, resource.DeviceID) error) func(context.Context, ipc.Args) (any, error) {
	return func(ctx context.Context, args ipc.Args) (any, error) {
		var req DeviceRequest
		if err := args.Decode(&req); err != nil {
			return nil, err
		}
		return nil, fn(ctx, req.Device)
	}
}

func (s *Server) handleConnect(ctx context.Context, args ipc.Args) (any, error) {
	var req DeviceRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	return s.ctrl.Connect(ctx, req.Device)
}

func (s *Server) handleSetParameter(ctx context.Context, args ipc.Args) (any, error) {
	var req ParameterRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	return nil, s.ctrl.SetParameter(ctx, req.Device, req.Key, req.Value)
}

func (s *Server) handleGetParameter(ctx context.Context, args ipc.Args) (any, error) {
	var req ParameterRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	v, err := s.ctrl.GetParameter(ctx, req.Device, req.Key)
	if err != nil {
		return nil, err
	}
	return ParameterResponse{Key: req.Key, Value: v}, nil
}

func (s *Server) handleSetpoint(ctx context.Context, args ipc.Args) (any, error) {
	var req SetpointRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	return nil, s.ctrl.Setpoint(ctx, req.Device, req.Value)
}

func (s *Server) handleIDAssignment(ctx context.Context, args ipc.Args) (any, error) {
	var req IDAssignmentRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	return nil, s.ctrl.IDAssignment(ctx, req.Device, req.NewID)
}

func (s *Server) handleTelemetryList(ctx context.Context, args ipc.Args) (any, error) {
	var req DeviceRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	return s.ctrl.TelemetryList(ctx, req.Device)
}

func (s *Server) handleTelemetryOpen(ctx context.Context, _ ipc.Args) (any, error) {
	if _, err := s.target.Get(); err != nil {
		return nil, err
	}

	st, err := s.ctrl.OpenTelemetry(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.streams[id] = st
	s.pumps.Add(1)
	s.mu.Unlock()

	go s.pump(id, st)
	return StreamRef{Stream: id}, nil
}

func (s *Server) handleTelemetryWrite(_ context.Context, args ipc.Args) (any, error) {
	var req StreamWrite
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	st, err := s.lookup(req.Stream)
	if err != nil {
		return nil, err
	}
	return nil, st.Send(req.Command)
}

func (s *Server) handleTelemetryEnd(ctx context.Context, args ipc.Args) (any, error) {
	var req StreamRef
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	st, err := s.lookup(req.Stream)
	if err != nil {
		return nil, err
	}
	return nil, st.CloseSend(ctx)
}

func (s *Server) lookup(id uint32) (resource.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.streams[id]
	if !ok {
		return nil, ErrStreamNotFound
	}
	return st, nil
}

// pump forwards samples until the stream ends, then reports the closure.
func (s *Server) pump(id uint32, st resource.Stream) {
	defer s.pumps.Done()

	var closeErr error
	for {
		sample, err := st.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				closeErr = err
				s.logger.Warn("device: telemetry stream failed", "stream", id, "error", err)
			}
			break
		}
		if err := s.target.Send(EventTelemetrySample, StreamSample{Stream: id, Sample: *sample}); err != nil {
			s.logger.Debug("device: failed to publish sample", "stream", id, "error", err)
		}
	}

	s.mu.Lock()
	delete(s.streams, id)
	s.mu.Unlock()

	msg := StreamClosed{Stream: id}
	if closeErr != nil {
		msg.Error = closeErr.Error()
	}
	if err := s.target.Send(EventTelemetryClosed, msg); err != nil {
		s.logger.Debug("device: failed to publish stream close", "stream", id, "error", err)
	}
}
