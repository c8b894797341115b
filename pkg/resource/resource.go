package resource

import (
	"context"
	"errors"
)

// Resource errors.
var (
	// ErrDestroyed is returned by any call on a destroyed resource.
	ErrDestroyed = errors.New("resource destroyed")

	// ErrAlreadyStarted is returned when a telemetry stream is started twice.
	ErrAlreadyStarted = errors.New("resource already started")

	// ErrNotStarted is returned when stopping a telemetry stream that never started.
	ErrNotStarted = errors.New("resource not started")

	// ErrStopped is returned when sending on a stopped telemetry stream.
	ErrStopped = errors.New("resource stopped")
)

// DeviceID identifies a physical device (a CAN node id or a USB serial).
type DeviceID string

// String returns the identifier text.
func (id DeviceID) String() string {
	return string(id)
}

// Done is closed when the work it tracks has finished.
type Done <-chan struct{}

var completed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Completed returns a handle that is already satisfied.
func Completed() Done {
	return completed
}

// Wait blocks until d is satisfied or ctx is done.
func (d Done) Wait(ctx context.Context) error {
	select {
	case <-d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JoinDone returns a handle satisfied once every handle in dones is satisfied.
func JoinDone(dones ...Done) Done {
	switch len(dones) {
	case 0:
		return Completed()
	case 1:
		return dones[0]
	}

	out := make(chan struct{})
	go func() {
		defer close(out)
		for _, d := range dones {
			<-d
		}
	}()
	return out
}

// Resource is the lifecycle every background activity implements.
type Resource interface {
	// Pause stops initiating new work and returns a handle satisfied when
	// the work in flight at this moment has finished.
	Pause() (Done, error)

	// Resume re-arms the resource. Calling it on a running resource is a no-op.
	Resume() error

	// Destroy stops the resource permanently. It does not interrupt work in
	// flight. Every later call returns ErrDestroyed.
	Destroy(ctx context.Context) error
}

// Reassignable is a resource that can be moved to a new device identity
// without being destroyed.
type Reassignable interface {
	Resource

	// SetOwner swaps the device the resource acts on. It neither restarts the
	// resource nor waits for work in flight; callers pause first.
	SetOwner(id DeviceID) error

	// Owner returns the current device identity.
	Owner() DeviceID
}

// Factory builds a resource bound to owner.
type Factory func(owner DeviceID) (Resource, error)
