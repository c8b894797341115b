package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/session"
)

// ExclusiveFunc runs while every background activity is paused. It receives
// the device the session is bound to.
type ExclusiveFunc func(ctx context.Context, id resource.DeviceID) error

// Exclusive pauses the session, waits until the work in flight has finished
// and runs fn. The session is resumed afterwards whatever fn returns.
// Concurrent calls run one after another, and Connect and Disconnect wait
// for a running call. Exclusive calls do not nest.
func (s *Service) Exclusive(ctx context.Context, fn ExclusiveFunc) (err error) {
	if _, ok := s.session.CurrentDevice(); !ok {
		return session.ErrNoDevice
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.releaseExclusive()

	defer func() {
		if rerr := s.session.Resume(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()

	if err := s.session.Pause().Wait(ctx); err != nil {
		return err
	}

	// The device may have been lost while draining.
	id, ok := s.session.CurrentDevice()
	if !ok {
		return session.ErrNoDevice
	}
	return fn(ctx, id)
}

// ChangeCANID moves the current device to newID and re-keys every resource
// to follow it. It fails before touching the device when a resource cannot
// change owner.
func (s *Service) ChangeCANID(ctx context.Context, newID resource.DeviceID) error {
	var previous resource.DeviceID
	err := s.Exclusive(ctx, func(ctx context.Context, id resource.DeviceID) error {
		if id == newID {
			return nil
		}
		for _, r := range s.session.Resources() {
			if _, ok := r.(resource.Reassignable); !ok {
				return fmt.Errorf("%w: %T", session.ErrNotReassignable, r)
			}
		}

		callCtx, cancel := s.callContext(ctx)
		err := s.ctrl.IDAssignment(callCtx, id, newID)
		cancel()
		if err != nil {
			return fmt.Errorf("assign id %s: %w", newID, err)
		}
		if err := s.session.ReKey(ctx, newID); err != nil {
			return err
		}
		previous = id
		return nil
	})
	if err != nil || previous == "" {
		return err
	}

	s.logger.Info("device id changed", "from", previous, "to", newID)
	s.emit(Event{Type: EventIDChanged, DeviceID: newID, PreviousID: previous})
	return nil
}

// BurnFlash persists the device parameters.
func (s *Service) BurnFlash(ctx context.Context) error {
	return s.Exclusive(ctx, func(ctx context.Context, id resource.DeviceID) error {
		callCtx, cancel := s.callContext(ctx)
		defer cancel()
		return s.ctrl.BurnFlash(callCtx, id)
	})
}

// FactoryReset restores the device defaults.
func (s *Service) FactoryReset(ctx context.Context) error {
	return s.Exclusive(ctx, func(ctx context.Context, id resource.DeviceID) error {
		callCtx, cancel := s.callContext(ctx)
		defer cancel()
		return s.ctrl.FactoryReset(callCtx, id)
	})
}

// SetParameter writes one device parameter.
func (s *Service) SetParameter(ctx context.Context, key device.ParameterKey, value float64) error {
	return s.Exclusive(ctx, func(ctx context.Context, id resource.DeviceID) error {
		callCtx, cancel := s.callContext(ctx)
		defer cancel()
		return s.ctrl.SetParameter(callCtx, id, key, value)
	})
}

// GetParameter reads one device parameter.
func (s *Service) GetParameter(ctx context.Context, key device.ParameterKey) (float64, error) {
	var value float64
	err := s.Exclusive(ctx, func(ctx context.Context, id resource.DeviceID) error {
		callCtx, cancel := s.callContext(ctx)
		defer cancel()
		v, err := s.ctrl.GetParameter(callCtx, id, key)
		value = v
		return err
	})
	return value, err
}
