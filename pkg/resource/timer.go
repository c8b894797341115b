package resource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/motorlink/motorlink-go/pkg/log"
)

// DefaultTimerPeriod is used when TimerConfig.Period is zero.
const DefaultTimerPeriod = time.Second

// Action is one unit of timer work. It receives the current owner and a
// snapshot of the timer's attributes.
type Action func(ctx context.Context, owner DeviceID, attrs map[string]any) error

// TimerConfig configures a Timer.
type TimerConfig struct {
	// Name tags log output (e.g. "liveness", "heartbeat:20501").
	Name string

	// Period between ticks.
	Period time.Duration

	// TickTimeout bounds the context handed to each action (0 = unbounded).
	TickTimeout time.Duration

	// Attributes seeds the attribute bag.
	Attributes map[string]any

	// Logger receives action failures (optional).
	Logger *slog.Logger

	// ProtocolLogger receives action failures as error events (optional).
	ProtocolLogger log.Logger

	// OnError is called for every failed action (optional).
	OnError func(owner DeviceID, err error)
}

// Timer repeats an action on a fixed period against its owner device.
type Timer struct {
	name           string
	period         time.Duration
	tickTimeout    time.Duration
	action         Action
	attrs          *Attributes
	logger         *slog.Logger
	protocolLogger log.Logger
	onError        func(owner DeviceID, err error)

	mu        sync.Mutex
	owner     DeviceID
	stop      chan struct{} // non-nil while armed
	loopDone  chan struct{}
	inFlight  chan struct{} // most recently started unit, nil when idle
	destroyed bool
}

// NewTimer creates a timer for owner and arms it immediately.
func NewTimer(owner DeviceID, cfg TimerConfig, action Action) *Timer {
	if cfg.Period <= 0 {
		cfg.Period = DefaultTimerPeriod
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	t := &Timer{
		name:           cfg.Name,
		period:         cfg.Period,
		tickTimeout:    cfg.TickTimeout,
		action:         action,
		attrs:          NewAttributes(cfg.Attributes),
		logger:         logger,
		protocolLogger: log.OrNoop(cfg.ProtocolLogger),
		onError:        cfg.OnError,
		owner:          owner,
	}

	t.mu.Lock()
	t.arm()
	t.mu.Unlock()
	return t
}

// Name returns the configured timer name.
func (t *Timer) Name() string {
	return t.name
}

// Attributes returns the bag passed (as a snapshot) to every tick.
func (t *Timer) Attributes() *Attributes {
	return t.attrs
}

// Owner returns the device the timer acts on.
func (t *Timer) Owner() DeviceID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.owner
}

// Running reports whether the ticker is armed.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// Pause disarms the ticker and returns a handle for the unit in flight.
// No tick starts after Pause returns.
func (t *Timer) Pause() (Done, error) {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return nil, ErrDestroyed
	}
	t.disarm()
	inFlight := t.inFlight
	t.mu.Unlock()

	if inFlight == nil {
		return Completed(), nil
	}
	return inFlight, nil
}

// Resume re-arms the ticker at the configured period.
func (t *Timer) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.destroyed {
		return ErrDestroyed
	}
	if t.stop == nil {
		t.arm()
	}
	return nil
}

// SetOwner swaps the owner used by subsequent ticks.
func (t *Timer) SetOwner(id DeviceID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.destroyed {
		return ErrDestroyed
	}
	t.owner = id
	return nil
}

// Destroy disarms the timer permanently. Work in flight is not interrupted.
func (t *Timer) Destroy(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.destroyed {
		return ErrDestroyed
	}
	t.destroyed = true
	t.disarm()
	return nil
}

// arm starts the tick loop. Caller holds t.mu.
func (t *Timer) arm() {
	t.stop = make(chan struct{})
	t.loopDone = make(chan struct{})
	go t.loop(t.stop, t.loopDone)
}

// disarm stops the tick loop and waits for it to exit. Caller holds t.mu;
// the loop never takes t.mu after seeing stop closed, so waiting is safe.
func (t *Timer) disarm() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
	t.mu.Unlock()
	<-t.loopDone
	t.mu.Lock()
}

func (t *Timer) loop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !t.fire(stop) {
				return
			}
		}
	}
}

// fire starts one unit of work. It returns false when the timer was
// disarmed between the tick and taking the lock.
func (t *Timer) fire(stop chan struct{}) bool {
	t.mu.Lock()
	select {
	case <-stop:
		t.mu.Unlock()
		return false
	default:
	}
	owner := t.owner
	unit := make(chan struct{})
	t.inFlight = unit
	t.mu.Unlock()

	go t.run(owner, unit)
	return true
}

func (t *Timer) run(owner DeviceID, unit chan struct{}) {
	defer func() {
		t.mu.Lock()
		if t.inFlight == unit {
			t.inFlight = nil
		}
		t.mu.Unlock()
		close(unit)
	}()

	ctx := context.Background()
	if t.tickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.tickTimeout)
		defer cancel()
	}

	if err := t.invoke(ctx, owner); err != nil {
		t.report(owner, err)
	}
}

// invoke runs the action, converting a panic into an error so one bad tick
// cannot take the process down.
func (t *Timer) invoke(ctx context.Context, owner DeviceID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("timer action panicked: %v", r)
		}
	}()
	return t.action(ctx, owner, t.attrs.Snapshot())
}

func (t *Timer) report(owner DeviceID, err error) {
	t.logger.Warn("timer action failed",
		"timer", t.name,
		"owner", owner,
		"error", err)

	t.protocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerService,
		Category:  log.CategoryError,
		DeviceID:  owner.String(),
		Error: &log.ErrorEventData{
			Layer:   log.LayerService,
			Message: err.Error(),
			Context: "timer " + t.name,
		},
	})

	if t.onError != nil {
		t.onError(owner, err)
	}
}

var _ Reassignable = (*Timer)(nil)
