package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/session"
)

// StartTelemetry opens a telemetry stream for the current device. Signals
// are added separately. The stream cannot follow a CAN id change.
func (s *Service) StartTelemetry(ctx context.Context) error {
	if _, ok := s.session.CurrentDevice(); !ok {
		return session.ErrNoDevice
	}
	if s.session.HasResource(TelemetryResource) {
		return session.ErrDuplicateResource
	}

	callCtx, cancel := s.callContext(ctx)
	stream, err := s.ctrl.OpenTelemetry(callCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("open telemetry: %w", err)
	}

	r, err := s.session.NewDeviceResource(TelemetryResource, func(owner resource.DeviceID) (resource.Resource, error) {
		return resource.NewTelemetry(stream, s.forwardTelemetry(owner), resource.TelemetryConfig{Logger: s.logger}), nil
	})
	if err != nil {
		if cerr := stream.CloseSend(ctx); cerr != nil {
			s.logger.Debug("close unused telemetry stream", "error", cerr)
		}
		return err
	}

	// Start emits events, so it runs after the session lock is released.
	if err := r.(*resource.Telemetry).Start(); err != nil {
		return errors.Join(fmt.Errorf("start telemetry: %w", err),
			s.session.ReleaseDeviceResource(ctx, TelemetryResource))
	}
	return nil
}

// AddSignal subscribes to a signal on the running stream.
func (s *Service) AddSignal(id resource.DeviceID, signal resource.SignalID) error {
	t, err := s.telemetry()
	if err != nil {
		return err
	}
	return t.AddSignal(id, signal)
}

// RemoveSignal unsubscribes from a signal on the running stream.
func (s *Service) RemoveSignal(id resource.DeviceID, signal resource.SignalID) error {
	t, err := s.telemetry()
	if err != nil {
		return err
	}
	return t.RemoveSignal(id, signal)
}

// Signals returns the current subscriptions, or nil without a stream.
func (s *Service) Signals() []resource.SignalRef {
	t, err := s.telemetry()
	if err != nil {
		return nil
	}
	return t.Signals()
}

// StopTelemetry stops and removes the stream.
func (s *Service) StopTelemetry(ctx context.Context) error {
	if !s.session.HasResource(TelemetryResource) {
		return ErrTelemetryNotStarted
	}
	return s.session.ReleaseDeviceResource(ctx, TelemetryResource)
}

func (s *Service) telemetry() (*resource.Telemetry, error) {
	r, ok := s.session.DeviceResource(TelemetryResource)
	if !ok {
		return nil, ErrTelemetryNotStarted
	}
	t, ok := r.(*resource.Telemetry)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedResource, r)
	}
	return t, nil
}

// forwardTelemetry publishes stream events for the device the stream was
// opened on. Telemetry never changes owner, so owner stays valid.
func (s *Service) forwardTelemetry(owner resource.DeviceID) resource.Listener {
	return func(ev resource.Event) {
		event := Event{Type: EventTelemetry, DeviceID: owner, Telemetry: ev.Type, Sample: ev.Sample}
		if ev.Sample != nil {
			event.DeviceID = ev.Sample.DeviceID
		}
		if ev.Err != nil {
			event.Error = ev.Err.Error()
		}
		s.emit(event)
	}
}
