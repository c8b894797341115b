package ipc

import "sync"

// Channel publishes unsolicited events to the UI process.
type Channel interface {
	Send(event string, args any) error
}

// ChannelFunc adapts a function to Channel.
type ChannelFunc func(event string, args any) error

// Send implements Channel.
func (f ChannelFunc) Send(event string, args any) error {
	return f(event, args)
}

// Target holds the notification channel. It is set once at startup and
// handed to every publisher; publishing before Set is a startup ordering
// bug and fails with ErrTargetNotSet.
type Target struct {
	mu sync.RWMutex
	ch Channel
}

// Set registers the channel. It may be called once.
func (t *Target) Set(ch Channel) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ch != nil {
		return ErrTargetAlreadySet
	}
	t.ch = ch
	return nil
}

// Get returns the registered channel.
func (t *Target) Get() (Channel, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.ch == nil {
		return nil, ErrTargetNotSet
	}
	return t.ch, nil
}

// Send publishes to the registered channel.
func (t *Target) Send(event string, args any) error {
	ch, err := t.Get()
	if err != nil {
		return err
	}
	return ch.Send(event, args)
}

var _ Channel = (*Target)(nil)
