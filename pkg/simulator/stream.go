package simulator

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/motorlink/motorlink-go/pkg/resource"
)

// streamBuffer is the number of samples a stream holds before dropping.
const streamBuffer = 64

type stream struct {
	bus     *Bus
	samples chan *resource.Sample

	mu         sync.Mutex
	started    bool
	subscribed []resource.SignalRef

	halfClose chan struct{}
	closeOnce sync.Once
}

func newStream(b *Bus) *stream {
	return &stream{
		bus:       b,
		samples:   make(chan *resource.Sample, streamBuffer),
		halfClose: make(chan struct{}),
	}
}

func (s *stream) Send(cmd resource.TelemetryCommand) error {
	select {
	case <-s.halfClose:
		return io.ErrClosedPipe
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch cmd.Op {
	case resource.TelemetryStart:
		s.started = true
	case resource.TelemetryStop:
		s.started = false
	case resource.TelemetryAdd:
		if cmd.Signal != nil && !slices.Contains(s.subscribed, *cmd.Signal) {
			s.subscribed = append(s.subscribed, *cmd.Signal)
		}
	case resource.TelemetryRemove:
		if cmd.Signal != nil {
			s.subscribed = slices.DeleteFunc(s.subscribed, func(r resource.SignalRef) bool {
				return r == *cmd.Signal
			})
		}
	}
	return nil
}

// Recv returns io.EOF once the stream was half-closed and drained.
func (s *stream) Recv() (*resource.Sample, error) {
	sample, ok := <-s.samples
	if !ok {
		return nil, io.EOF
	}
	return sample, nil
}

func (s *stream) CloseSend(context.Context) error {
	s.closeOnce.Do(func() { close(s.halfClose) })
	return nil
}

func (s *stream) run() {
	defer close(s.samples)

	ticker := time.NewTicker(s.bus.samplePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.halfClose:
			return
		case now := <-ticker.C:
			s.emit(now)
		}
	}
}

func (s *stream) emit(now time.Time) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	refs := slices.Clone(s.subscribed)
	s.mu.Unlock()

	s.bus.mu.Lock()
	batch := make([]resource.Sample, 0, len(refs))
	for _, ref := range refs {
		if sample, ok := s.bus.sample(ref.DeviceID, ref.SignalID, now); ok {
			batch = append(batch, sample)
		}
	}
	s.bus.mu.Unlock()

	for i := range batch {
		select {
		case s.samples <- &batch[i]:
		default:
			s.bus.logger.Debug("sim: telemetry buffer full", "device", batch[i].DeviceID)
		}
	}
}
