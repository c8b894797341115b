package ipc

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/wire"
)

// Sender is the raw process-boundary primitive.
type Sender interface {
	Send(data []byte) error
}

// Correlator issues calls and matches replies to their waiters.
type Correlator struct {
	sender Sender
	logger *slog.Logger

	nextID  atomic.Uint32
	dropped atomic.Uint64

	mu      sync.Mutex
	pending map[uint32]*waiter
	closed  bool

	// Protocol logging (optional)
	protocolLogger log.Logger
	connID         string
	role           log.Role
}

type waiter struct {
	ch      chan *wire.Envelope
	method  string
	started time.Time
}

// NewCorrelator creates a correlator writing to sender.
func NewCorrelator(sender Sender, logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Correlator{
		sender:  sender,
		logger:  logger,
		pending: make(map[uint32]*waiter),

		protocolLogger: log.NoopLogger{},
	}
}

// SetProtocolLogger captures outgoing calls and incoming replies.
func (c *Correlator) SetProtocolLogger(logger log.Logger, connID string, role log.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.protocolLogger = log.OrNoop(logger)
	c.connID = connID
	c.role = role
}

// newID returns the next correlation id, skipping the one-way id on
// wraparound.
func (c *Correlator) newID() uint32 {
	for {
		if id := c.nextID.Add(1); id != wire.OneWayID {
			return id
		}
	}
}

// Call sends a two-way call and waits for its reply. The reply payload is
// decoded into result (which may be nil). A remote failure is returned as
// *Error. Call blocks until the reply arrives, ctx ends or the correlator
// closes.
func (c *Correlator) Call(ctx context.Context, method string, args, result any) error {
	id := c.newID()
	env, err := wire.NewCall(id, method, args)
	if err != nil {
		return err
	}
	data, err := wire.EncodeEnvelope(env)
	if err != nil {
		return err
	}

	w := &waiter{
		ch:      make(chan *wire.Envelope, 1),
		method:  method,
		started: time.Now(),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.pending[id] = w
	c.mu.Unlock()

	defer c.forget(id)

	c.logEnvelope(log.DirectionOut, env, nil)
	if err := c.sender.Send(data); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case reply, ok := <-w.ch:
		if !ok {
			return ErrClosed
		}
		if reply.Error != nil {
			return fromRemote(reply.Error)
		}
		return wire.DecodePayload(reply.Payload, result)
	}
}

// Notify sends a one-way call. Delivery is not confirmed.
func (c *Correlator) Notify(method string, args any) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	env, err := wire.NewCall(wire.OneWayID, method, args)
	if err != nil {
		return err
	}
	data, err := wire.EncodeEnvelope(env)
	if err != nil {
		return err
	}
	c.logEnvelope(log.DirectionOut, env, nil)
	return c.sender.Send(data)
}

// HandleReply routes a reply to its waiter. Replies for unknown, already
// answered or abandoned calls are dropped; HandleReply reports whether the
// reply was delivered.
func (c *Correlator) HandleReply(env *wire.Envelope) bool {
	c.mu.Lock()
	w, ok := c.pending[env.CorrelationID]
	if ok {
		delete(c.pending, env.CorrelationID)
	}
	c.mu.Unlock()

	if !ok {
		c.dropped.Add(1)
		c.logger.Debug("ipc: dropping uncorrelated reply", "id", env.CorrelationID)
		c.logEnvelope(log.DirectionIn, env, nil)
		return false
	}

	latency := time.Since(w.started)
	c.logEnvelope(log.DirectionIn, env, &latency)
	w.ch <- env
	return true
}

// Close fails every pending call with ErrClosed and refuses new ones.
func (c *Correlator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, w := range c.pending {
		close(w.ch)
		delete(c.pending, id)
	}
}

// Pending returns the number of calls awaiting a reply.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Dropped returns the number of replies that matched no waiter.
func (c *Correlator) Dropped() uint64 {
	return c.dropped.Load()
}

func (c *Correlator) forget(id uint32) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Correlator) logEnvelope(dir log.Direction, env *wire.Envelope, latency *time.Duration) {
	c.mu.Lock()
	logger, connID, role := c.protocolLogger, c.connID, c.role
	c.mu.Unlock()

	msg := log.NewMessageEvent(env)
	msg.Latency = latency
	logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    role,
		Message:      msg,
	})
}
