package service

import (
	"context"
	"fmt"

	"github.com/motorlink/motorlink-go/pkg/resource"
)

const setpointAttribute = "setpoint"

// EnableHeartbeat starts sending setpoint to the current device every
// heartbeat period. The heartbeat follows the device across CAN id changes
// but keeps the name it was created with.
func (s *Service) EnableHeartbeat(id resource.DeviceID, setpoint float64) error {
	name := HeartbeatResource(id)
	_, err := s.session.NewDeviceResource(name, func(owner resource.DeviceID) (resource.Resource, error) {
		cfg := resource.TimerConfig{
			Name:           name,
			Period:         s.config.HeartbeatPeriod,
			TickTimeout:    s.config.CallTimeout,
			Attributes:     map[string]any{setpointAttribute: setpoint},
			Logger:         s.logger,
			ProtocolLogger: s.config.ProtocolLogger,
		}
		return resource.NewTimer(owner, cfg, s.heartbeat), nil
	})
	return err
}

// UpdateHeartbeat changes the setpoint sent from the next tick on.
func (s *Service) UpdateHeartbeat(id resource.DeviceID, setpoint float64) error {
	t, err := s.heartbeatTimer(id)
	if err != nil {
		return err
	}
	t.Attributes().Set(setpointAttribute, setpoint)
	return nil
}

// DisableHeartbeat stops and removes the heartbeat.
func (s *Service) DisableHeartbeat(ctx context.Context, id resource.DeviceID) error {
	name := HeartbeatResource(id)
	if !s.session.HasResource(name) {
		return ErrHeartbeatNotEnabled
	}
	return s.session.ReleaseDeviceResource(ctx, name)
}

// Setpoint returns the setpoint the heartbeat currently sends.
func (s *Service) Setpoint(id resource.DeviceID) (float64, error) {
	t, err := s.heartbeatTimer(id)
	if err != nil {
		return 0, err
	}
	v, _ := t.Attributes().Get(setpointAttribute)
	f, _ := v.(float64)
	return f, nil
}

func (s *Service) heartbeat(ctx context.Context, owner resource.DeviceID, attrs map[string]any) error {
	value, _ := attrs[setpointAttribute].(float64)
	err := s.ctrl.Setpoint(ctx, owner, value)

	event := Event{Type: EventHeartbeat, DeviceID: owner}
	if err != nil {
		event.Error = err.Error()
	}
	s.emit(event)
	return err
}

func (s *Service) heartbeatTimer(id resource.DeviceID) (*resource.Timer, error) {
	r, ok := s.session.DeviceResource(HeartbeatResource(id))
	if !ok {
		return nil, ErrHeartbeatNotEnabled
	}
	t, ok := r.(*resource.Timer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedResource, r)
	}
	return t, nil
}
