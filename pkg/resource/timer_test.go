package resource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopAction(context.Context, DeviceID, map[string]any) error { return nil }

func TestTimerTicksWithOwnerAndAttributes(t *testing.T) {
	type tick struct {
		owner DeviceID
		attrs map[string]any
	}
	ticks := make(chan tick, 16)

	timer := NewTimer("20501", TimerConfig{
		Period:     5 * time.Millisecond,
		Attributes: map[string]any{"setpoint": 1.5},
	}, func(_ context.Context, owner DeviceID, attrs map[string]any) error {
		select {
		case ticks <- tick{owner, attrs}:
		default:
		}
		return nil
	})
	defer timer.Destroy(context.Background())

	got := <-ticks
	assert.Equal(t, DeviceID("20501"), got.owner)
	assert.Equal(t, 1.5, got.attrs["setpoint"])

	timer.Attributes().Set("setpoint", 2.5)
	require.Eventually(t, func() bool {
		select {
		case tk := <-ticks:
			return tk.attrs["setpoint"] == 2.5
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestTimerPauseWaitsForInFlightTick(t *testing.T) {
	var count atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	timer := NewTimer("1", TimerConfig{Period: 5 * time.Millisecond},
		func(context.Context, DeviceID, map[string]any) error {
			count.Add(1)
			once.Do(func() { close(started) })
			<-release
			return nil
		})
	defer timer.Destroy(context.Background())

	<-started
	done, err := timer.Pause()
	require.NoError(t, err)
	assert.False(t, timer.Running())

	select {
	case <-done:
		t.Fatal("pause handle completed while tick still in flight")
	case <-time.After(30 * time.Millisecond):
	}

	ticksAtPause := count.Load()
	close(release)

	require.NoError(t, done.Wait(contextWithTimeout(t, time.Second)))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, ticksAtPause, count.Load(), "no tick may start while paused")
}

func TestTimerPauseIdempotent(t *testing.T) {
	timer := NewTimer("1", TimerConfig{Period: time.Hour}, noopAction)
	defer timer.Destroy(context.Background())

	first, err := timer.Pause()
	require.NoError(t, err)
	second, err := timer.Pause()
	require.NoError(t, err)

	assert.NoError(t, first.Wait(contextWithTimeout(t, time.Second)))
	assert.NoError(t, second.Wait(contextWithTimeout(t, time.Second)))
}

func TestTimerResume(t *testing.T) {
	var count atomic.Int32
	timer := NewTimer("1", TimerConfig{Period: 5 * time.Millisecond},
		func(context.Context, DeviceID, map[string]any) error {
			count.Add(1)
			return nil
		})
	defer timer.Destroy(context.Background())

	// Resume on a running timer is a no-op
	require.NoError(t, timer.Resume())
	assert.True(t, timer.Running())

	_, err := timer.Pause()
	require.NoError(t, err)
	paused := count.Load()

	require.NoError(t, timer.Resume())
	require.Eventually(t, func() bool { return count.Load() > paused }, time.Second, time.Millisecond)
}

func TestTimerActionErrorsDoNotStopTicking(t *testing.T) {
	var calls atomic.Int32
	var reported atomic.Int32

	timer := NewTimer("7", TimerConfig{
		Name:   "flaky",
		Period: 5 * time.Millisecond,
		OnError: func(owner DeviceID, err error) {
			if owner == "7" && err != nil {
				reported.Add(1)
			}
		},
	}, func(context.Context, DeviceID, map[string]any) error {
		n := calls.Add(1)
		if n == 2 {
			panic("boom")
		}
		return errors.New("device busy")
	})
	defer timer.Destroy(context.Background())

	require.Eventually(t, func() bool { return calls.Load() >= 4 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return reported.Load() >= 3 }, time.Second, time.Millisecond)
}

func TestTimerSetOwner(t *testing.T) {
	owners := make(chan DeviceID, 32)
	timer := NewTimer("20501", TimerConfig{Period: 5 * time.Millisecond},
		func(_ context.Context, owner DeviceID, _ map[string]any) error {
			select {
			case owners <- owner:
			default:
			}
			return nil
		})
	defer timer.Destroy(context.Background())

	done, err := timer.Pause()
	require.NoError(t, err)
	require.NoError(t, done.Wait(contextWithTimeout(t, time.Second)))

	require.NoError(t, timer.SetOwner("20502"))
	assert.Equal(t, DeviceID("20502"), timer.Owner())

	require.NoError(t, timer.Resume())
	require.Eventually(t, func() bool {
		select {
		case o := <-owners:
			return o == "20502"
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestTimerDestroy(t *testing.T) {
	timer := NewTimer("1", TimerConfig{Period: time.Millisecond}, noopAction)

	require.NoError(t, timer.Destroy(context.Background()))
	assert.False(t, timer.Running())

	_, err := timer.Pause()
	assert.ErrorIs(t, err, ErrDestroyed)
	assert.ErrorIs(t, timer.Resume(), ErrDestroyed)
	assert.ErrorIs(t, timer.SetOwner("2"), ErrDestroyed)
	assert.ErrorIs(t, timer.Destroy(context.Background()), ErrDestroyed)
}

func TestTimerTickTimeout(t *testing.T) {
	deadlines := make(chan bool, 1)
	timer := NewTimer("1", TimerConfig{Period: 5 * time.Millisecond, TickTimeout: 50 * time.Millisecond},
		func(ctx context.Context, _ DeviceID, _ map[string]any) error {
			_, ok := ctx.Deadline()
			select {
			case deadlines <- ok:
			default:
			}
			return nil
		})
	defer timer.Destroy(context.Background())

	assert.True(t, <-deadlines)
}

func TestJoinDone(t *testing.T) {
	a := make(chan struct{})
	b := make(chan struct{})
	joined := JoinDone(a, b, Completed())

	close(a)
	select {
	case <-joined:
		t.Fatal("joined handle completed early")
	case <-time.After(10 * time.Millisecond):
	}

	close(b)
	assert.NoError(t, joined.Wait(contextWithTimeout(t, time.Second)))
	assert.NoError(t, JoinDone().Wait(context.Background()))
}

func TestAttributes(t *testing.T) {
	seed := map[string]any{"a": 1}
	attrs := NewAttributes(seed)
	seed["a"] = 2

	v, ok := attrs.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v, "bag must copy its seed")

	attrs.Set("b", "x")
	snap := attrs.Snapshot()
	attrs.Delete("a")

	assert.Equal(t, map[string]any{"a": 1, "b": "x"}, snap)
	_, ok = attrs.Get("a")
	assert.False(t, ok)
}

func contextWithTimeout(t *testing.T, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}
