package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/resource"
)

// Session errors.
var (
	// ErrNoDevice is returned when an operation needs a connected device.
	ErrNoDevice = errors.New("no device connected")

	// ErrPaused is returned when creating a resource while paused.
	ErrPaused = errors.New("session is paused")

	// ErrDuplicateResource is returned when a resource name is already in use.
	ErrDuplicateResource = errors.New("resource name already in use")

	// ErrNotReassignable is returned by ReKey when a resource cannot change owner.
	ErrNotReassignable = errors.New("resource cannot change owner")

	// ErrSessionChanged is returned when the device was connected or
	// disconnected while an operation was waiting.
	ErrSessionChanged = errors.New("session changed during operation")
)

// State names reported in state change events.
const (
	StateDisconnected = "DISCONNECTED"
	StateRunning      = "RUNNING"
	StatePaused       = "PAUSED"
)

// Config configures a Session.
type Config struct {
	// Permanent factories build the resources every connected device gets,
	// in this order.
	Permanent []resource.Factory

	// Logger receives lifecycle messages (optional).
	Logger *slog.Logger

	// ProtocolLogger receives state change events (optional).
	ProtocolLogger log.Logger
}

// Session owns the active device identity and the resources bound to it.
type Session struct {
	factories      []resource.Factory
	logger         *slog.Logger
	protocolLogger log.Logger

	mu         sync.Mutex
	current    *resource.DeviceID
	generation uint64
	permanent  []resource.Resource
	temporary  map[string]resource.Resource
	order      []string
	paused     bool
	barrier    *Barrier
}

// New creates a session with no device.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		factories:      append([]resource.Factory(nil), cfg.Permanent...),
		logger:         logger,
		protocolLogger: log.OrNoop(cfg.ProtocolLogger),
		temporary:      make(map[string]resource.Resource),
	}
}

// Connect binds the session to id. Connecting to the current device is a
// no-op; connecting to another device disconnects the old one first.
// If a permanent factory fails the session is left disconnected.
func (s *Session) Connect(ctx context.Context, id resource.DeviceID) error {
	s.mu.Lock()
	if s.current != nil && *s.current == id {
		s.mu.Unlock()
		return nil
	}
	connected := s.current != nil
	s.mu.Unlock()

	if connected {
		if err := s.Disconnect(ctx); err != nil {
			s.logger.Warn("session: disconnect before connect failed",
				"device", id,
				"error", err)
		}
	}

	built := make([]resource.Resource, 0, len(s.factories))
	for i, factory := range s.factories {
		r, err := factory(id)
		if err != nil {
			destroyAll(ctx, built)
			return fmt.Errorf("permanent resource %d: %w", i, err)
		}
		built = append(built, r)
	}

	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		destroyAll(ctx, built)
		return ErrSessionChanged
	}
	s.current = &id
	s.generation++
	s.permanent = built
	s.mu.Unlock()

	s.logger.Info("session connected", "device", id, "resources", len(built))
	s.logState(id, StateDisconnected, StateRunning, "connect")
	return nil
}

// Disconnect destroys every resource and clears the session. Destroys run in
// parallel; their failures are joined and returned, but the session is
// always left disconnected and unpaused.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.current == nil {
		s.paused = false
		s.barrier = nil
		s.mu.Unlock()
		return nil
	}
	id := *s.current
	oldState := s.stateLocked()
	all := s.resourcesLocked()

	s.current = nil
	s.generation++
	s.permanent = nil
	s.temporary = make(map[string]resource.Resource)
	s.order = nil
	s.paused = false
	s.barrier = nil
	s.mu.Unlock()

	err := destroyAll(ctx, all)
	if err != nil {
		s.logger.Warn("session: resource destroy failed", "device", id, "error", err)
	}
	s.logger.Info("session disconnected", "device", id)
	s.logState(id, oldState, StateDisconnected, "disconnect")
	return err
}

// Pause stops every resource from starting new work and returns a barrier
// for the work in flight. While paused, repeated calls return the same
// barrier. Without a device the barrier is already complete.
func (s *Session) Pause() *Barrier {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return completedBarrier()
	}
	return s.pauseLocked()
}

func (s *Session) pauseLocked() *Barrier {
	if s.paused {
		return s.barrier
	}

	var (
		dones []resource.Done
		errs  []error
	)
	for _, r := range s.resourcesLocked() {
		done, err := r.Pause()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		dones = append(dones, done)
	}

	s.paused = true
	s.barrier = newBarrier(dones, errors.Join(errs...))
	s.logState(*s.current, StateRunning, StatePaused, "pause")
	return s.barrier
}

// Resume restarts every resource. It is a no-op when not paused.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumeLocked()
}

func (s *Session) resumeLocked() error {
	if !s.paused {
		return nil
	}

	var errs []error
	for _, r := range s.resourcesLocked() {
		if err := r.Resume(); err != nil {
			errs = append(errs, err)
		}
	}

	s.paused = false
	s.barrier = nil
	if s.current != nil {
		s.logState(*s.current, StatePaused, StateRunning, "resume")
	}
	return errors.Join(errs...)
}

// ReKey moves every resource to id without recreating it. A running session
// is paused while resources change owner and resumed afterwards; a paused
// session stays paused. If any resource is not reassignable, or refuses the
// new owner, nothing changes.
func (s *Session) ReKey(ctx context.Context, id resource.DeviceID) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return ErrNoDevice
	}
	if *s.current == id {
		s.mu.Unlock()
		return nil
	}
	wasPaused := s.paused
	gen := s.generation
	barrier := s.pauseLocked()
	s.mu.Unlock()

	select {
	case <-barrier.Done():
	case <-ctx.Done():
		if !wasPaused {
			s.resumeIfSame(gen)
		}
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return ErrSessionChanged
	}

	all := s.resourcesLocked()
	targets := make([]resource.Reassignable, 0, len(all))
	for _, r := range all {
		ra, ok := r.(resource.Reassignable)
		if !ok {
			if !wasPaused {
				_ = s.resumeLocked()
			}
			return fmt.Errorf("%w: %T", ErrNotReassignable, r)
		}
		targets = append(targets, ra)
	}

	old := *s.current
	for i, ra := range targets {
		if err := ra.SetOwner(id); err != nil {
			for _, moved := range targets[:i] {
				if rerr := moved.SetOwner(old); rerr != nil {
					s.logger.Warn("session: re-key rollback failed", "device", old, "error", rerr)
				}
			}
			if !wasPaused {
				_ = s.resumeLocked()
			}
			return fmt.Errorf("re-key %s to %s: %w", old, id, err)
		}
	}

	s.current = &id
	s.logger.Info("session re-keyed", "from", old, "to", id)
	s.logState(id, old.String(), id.String(), "rekey")

	if !wasPaused {
		return s.resumeLocked()
	}
	return nil
}

func (s *Session) resumeIfSame(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		_ = s.resumeLocked()
	}
}

// NewDeviceResource builds a temporary resource for the current device and
// stores it under name. The factory runs with the session locked and must
// not call back into the session.
func (s *Session) NewDeviceResource(name string, factory resource.Factory) (resource.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoDevice
	}
	if s.paused {
		return nil, fmt.Errorf("%w: cannot create %q", ErrPaused, name)
	}
	if _, exists := s.temporary[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateResource, name)
	}

	r, err := factory(*s.current)
	if err != nil {
		return nil, err
	}
	s.temporary[name] = r
	s.order = append(s.order, name)

	s.logger.Debug("session resource created", "device", *s.current, "name", name)
	return r, nil
}

// ReleaseDeviceResource destroys and removes the named resource. Releasing
// an unknown name is a no-op.
func (s *Session) ReleaseDeviceResource(ctx context.Context, name string) error {
	s.mu.Lock()
	r, ok := s.temporary[name]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.temporary, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.logger.Debug("session resource released", "name", name)
	return r.Destroy(ctx)
}

// HasResource reports whether a temporary resource named name exists.
func (s *Session) HasResource(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.temporary[name]
	return ok
}

// DeviceResource returns the named temporary resource.
func (s *Session) DeviceResource(name string) (resource.Resource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.temporary[name]
	return r, ok
}

// Names returns the temporary resource names in creation order.
func (s *Session) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// CurrentDevice returns the connected device, if any.
func (s *Session) CurrentDevice() (resource.DeviceID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return "", false
	}
	return *s.current, true
}

// IsPaused reports whether the session is paused.
func (s *Session) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Resources returns the permanent resources in registration order followed
// by the temporary resources in creation order.
func (s *Session) Resources() []resource.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resourcesLocked()
}

func (s *Session) resourcesLocked() []resource.Resource {
	out := make([]resource.Resource, 0, len(s.permanent)+len(s.order))
	out = append(out, s.permanent...)
	for _, name := range s.order {
		out = append(out, s.temporary[name])
	}
	return out
}

func (s *Session) stateLocked() string {
	switch {
	case s.current == nil:
		return StateDisconnected
	case s.paused:
		return StatePaused
	default:
		return StateRunning
	}
}

func (s *Session) logState(id resource.DeviceID, oldState, newState, reason string) {
	s.protocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		DeviceID:  id.String(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			Name:     id.String(),
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

// destroyAll destroys resources in parallel and joins their failures.
func destroyAll(ctx context.Context, rs []resource.Resource) error {
	errs := make([]error, len(rs))
	var wg sync.WaitGroup
	for i, r := range rs {
		wg.Add(1)
		go func(i int, r resource.Resource) {
			defer wg.Done()
			errs[i] = r.Destroy(ctx)
		}(i, r)
	}
	wg.Wait()
	return errors.Join(errs...)
}
