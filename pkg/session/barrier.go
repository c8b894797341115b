package session

import (
	"context"

	"github.com/motorlink/motorlink-go/pkg/resource"
)

// Barrier completes once every resource paused by a Session.Pause call has
// drained its in-flight work.
type Barrier struct {
	done resource.Done
	err  error
}

func newBarrier(dones []resource.Done, err error) *Barrier {
	return &Barrier{done: resource.JoinDone(dones...), err: err}
}

func completedBarrier() *Barrier {
	return &Barrier{done: resource.Completed()}
}

// Done is closed when the barrier completes.
func (b *Barrier) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the barrier completes or ctx ends. It returns the joined
// errors of resources that refused to pause.
func (b *Barrier) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return b.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
