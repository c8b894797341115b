package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/ipc"
	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/session"
)

// livenessResource names the permanent liveness timer in logs.
const livenessResource = "liveness"

// Service drives one device session in the worker process.
type Service struct {
	config  Config
	ctrl    device.Controller
	target  *ipc.Target
	session *session.Session
	logger  *slog.Logger

	// exclusive is held by one exclusive operation, Connect or Disconnect
	// at a time, so a pause is never resumed under another holder.
	exclusive chan struct{}

	mu       sync.RWMutex
	handlers []EventHandler
}

// New creates a service on top of ctrl. Events are published to target when
// it is non-nil; a target that was never set is reported as an error on
// every event.
func New(ctrl device.Controller, target *ipc.Target, config Config) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Service{
		config:    config,
		ctrl:      ctrl,
		target:    target,
		logger:    logger,
		exclusive: make(chan struct{}, 1),
	}
	s.session = session.New(session.Config{
		Permanent:      []resource.Factory{s.newLiveness},
		Logger:         logger,
		ProtocolLogger: config.ProtocolLogger,
	})
	return s, nil
}

// Config returns the service configuration.
func (s *Service) Config() Config {
	return s.config
}

// Session returns the underlying device session.
func (s *Service) Session() *session.Session {
	return s.session
}

// OnEvent registers a handler for service events.
func (s *Service) OnEvent(handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Connect opens id on the controller and binds the session to it. A
// different device that is still connected is disconnected first.
func (s *Service) Connect(ctx context.Context, id resource.DeviceID) (*device.Info, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.releaseExclusive()

	if current, ok := s.session.CurrentDevice(); ok && current != id {
		if err := s.disconnect(ctx); err != nil {
			s.logger.Warn("disconnect before connect failed", "device", current, "error", err)
		}
	}

	callCtx, cancel := s.callContext(ctx)
	info, err := s.ctrl.Connect(callCtx, id)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", id, err)
	}

	if err := s.session.Connect(ctx, id); err != nil {
		if rerr := s.release(ctx, id); rerr != nil {
			s.logger.Warn("release after failed connect", "device", id, "error", rerr)
		}
		return nil, err
	}

	s.logger.Info("device connected", "device", id, "firmware", info.Firmware)
	s.emit(Event{Type: EventConnected, DeviceID: id, Info: info})
	return info, nil
}

// Disconnect destroys every resource and releases the device. It is a
// no-op without a device.
func (s *Service) Disconnect(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.releaseExclusive()
	return s.disconnect(ctx)
}

func (s *Service) disconnect(ctx context.Context) error {
	id, ok := s.session.CurrentDevice()
	if !ok {
		return nil
	}

	err := s.session.Disconnect(ctx)
	if rerr := s.release(ctx, id); rerr != nil {
		err = errors.Join(err, rerr)
	}

	s.logger.Info("device disconnected", "device", id)
	s.emit(Event{Type: EventDisconnected, DeviceID: id})
	return err
}

// Close disconnects the current device.
func (s *Service) Close(ctx context.Context) error {
	return s.Disconnect(ctx)
}

// Ping checks that the current device answers.
func (s *Service) Ping(ctx context.Context) error {
	id, ok := s.session.CurrentDevice()
	if !ok {
		return session.ErrNoDevice
	}
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	return s.ctrl.Ping(callCtx, id)
}

// TelemetryList returns the signals the current device can stream.
func (s *Service) TelemetryList(ctx context.Context) ([]device.SignalInfo, error) {
	id, ok := s.session.CurrentDevice()
	if !ok {
		return nil, session.ErrNoDevice
	}
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	return s.ctrl.TelemetryList(callCtx, id)
}

// Status returns a snapshot of the session.
func (s *Service) Status() Status {
	id, ok := s.session.CurrentDevice()
	st := Status{
		Device:    id,
		Connected: ok,
		Paused:    s.session.IsPaused(),
		Resources: s.session.Names(),
	}
	if t, err := s.telemetry(); err == nil {
		st.Signals = t.Signals()
	}
	return st
}

// acquire waits for the exclusive slot or ctx.
func (s *Service) acquire(ctx context.Context) error {
	select {
	case s.exclusive <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) releaseExclusive() {
	<-s.exclusive
}

func (s *Service) release(ctx context.Context, id resource.DeviceID) error {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	return s.ctrl.Disconnect(callCtx, id)
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.CallTimeout)
}

func (s *Service) newLiveness(owner resource.DeviceID) (resource.Resource, error) {
	cfg := resource.TimerConfig{
		Name:           livenessResource,
		Period:         s.config.PingInterval,
		TickTimeout:    s.config.CallTimeout,
		Logger:         s.logger,
		ProtocolLogger: s.config.ProtocolLogger,
		OnError:        s.livenessFailed,
	}
	return resource.NewTimer(owner, cfg, func(ctx context.Context, owner resource.DeviceID, _ map[string]any) error {
		return s.ctrl.Ping(ctx, owner)
	}), nil
}

// livenessFailed drops the session once the device is gone from the bus.
// Timeouts are retried on the next tick.
func (s *Service) livenessFailed(owner resource.DeviceID, err error) {
	if !errors.Is(err, device.ErrDeviceNotFound) {
		return
	}
	if current, ok := s.session.CurrentDevice(); !ok || current != owner {
		return
	}

	s.logger.Warn("device lost", "device", owner, "error", err)
	if derr := s.session.Disconnect(context.Background()); derr != nil {
		s.logger.Warn("disconnect after device loss", "device", owner, "error", derr)
	}
	s.emit(Event{Type: EventDisconnected, DeviceID: owner, Error: err.Error()})
}

func (s *Service) emit(event Event) {
	s.mu.RLock()
	handlers := s.handlers
	s.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}

	if s.target == nil {
		return
	}
	if err := s.target.Send(NotifyEvent, event); err != nil {
		s.logger.Error("publish event failed", "event", event.Type.String(), "error", err)
	}
}
