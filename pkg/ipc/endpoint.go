package ipc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/transport"
	"github.com/motorlink/motorlink-go/pkg/wire"
)

// EndpointConfig configures an Endpoint.
type EndpointConfig struct {
	// Dispatcher handles incoming calls. Without one every call is answered
	// with CodeUnknownMethod.
	Dispatcher *Dispatcher

	// OnNotification receives notifications pushed by the peer (optional).
	OnNotification func(event string, args Args)

	// Role tags protocol events with the local process role.
	Role log.Role

	// ConnectionID tags protocol events (default: random UUID).
	ConnectionID string

	// Logger receives operational messages (optional).
	Logger *slog.Logger

	// ProtocolLogger captures every envelope (optional).
	ProtocolLogger log.Logger
}

// Endpoint is one side of the process boundary. It sends calls through its
// Correlator, serves incoming calls from its Dispatcher and publishes
// notifications to the peer.
type Endpoint struct {
	link           transport.Link
	connID         string
	role           log.Role
	dispatcher     *Dispatcher
	onNotification func(event string, args Args)
	correlator     *Correlator
	logger         *slog.Logger
	protocolLogger log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// NewEndpoint wraps link. Call Serve to start reading.
func NewEndpoint(link transport.Link, cfg EndpointConfig) *Endpoint {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = NewDispatcher(logger)
	}
	onNotification := cfg.OnNotification
	if onNotification == nil {
		onNotification = func(string, Args) {}
	}
	connID := cfg.ConnectionID
	if connID == "" {
		connID = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Endpoint{
		link:           link,
		connID:         connID,
		role:           cfg.Role,
		dispatcher:     dispatcher,
		onNotification: onNotification,
		logger:         logger.With("conn", connID),
		protocolLogger: log.OrNoop(cfg.ProtocolLogger),
		ctx:            ctx,
		cancel:         cancel,
	}
	e.correlator = NewCorrelator(link, e.logger)
	e.correlator.SetProtocolLogger(cfg.ProtocolLogger, connID, cfg.Role)
	return e
}

// ID returns the connection id.
func (e *Endpoint) ID() string {
	return e.connID
}

// Correlator returns the endpoint's call correlator.
func (e *Endpoint) Correlator() *Correlator {
	return e.correlator
}

// Call sends a two-way call to the peer.
func (e *Endpoint) Call(ctx context.Context, method string, args, result any) error {
	return e.correlator.Call(ctx, method, args, result)
}

// Notify sends a one-way call to the peer.
func (e *Endpoint) Notify(method string, args any) error {
	return e.correlator.Notify(method, args)
}

// Send pushes a notification to the peer.
func (e *Endpoint) Send(event string, args any) error {
	env, err := wire.NewNotification(event, args)
	if err != nil {
		return err
	}
	return e.write(env)
}

// Serve reads envelopes until the link closes or ctx ends. One-way calls
// and notifications are handled inline in arrival order, so their handlers
// must not block; two-way calls run on their own goroutines. When Serve
// returns, pending calls fail with ErrClosed.
func (e *Endpoint) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = e.Close() })
	defer stop()
	defer e.correlator.Close()

	for {
		data, err := e.link.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			e.logger.Warn("ipc: receive failed", "error", err)
			return err
		}

		env, err := wire.DecodeEnvelope(data)
		if err != nil {
			e.logger.Warn("ipc: dropping malformed envelope", "error", err)
			e.protocolLogger.Log(log.Event{
				Timestamp:    time.Now(),
				ConnectionID: e.connID,
				Direction:    log.DirectionIn,
				Layer:        log.LayerWire,
				Category:     log.CategoryError,
				LocalRole:    e.role,
				Error: &log.ErrorEventData{
					Layer:   log.LayerWire,
					Message: err.Error(),
					Context: "decode envelope",
				},
			})
			continue
		}

		switch env.Kind {
		case wire.KindCall:
			e.logEnvelope(log.DirectionIn, env)
			if env.IsOneWay() {
				e.dispatcher.Dispatch(e.ctx, env, e.write)
				continue
			}
			e.wg.Add(1)
			go func() {
				defer e.wg.Done()
				e.dispatcher.Dispatch(e.ctx, env, e.write)
			}()
		case wire.KindReply:
			e.correlator.HandleReply(env)
		case wire.KindNotification:
			e.logEnvelope(log.DirectionIn, env)
			e.onNotification(env.Method, NewArgs(env.Payload))
		}
	}
}

// Close closes the link, cancels running handlers and fails pending calls.
// It does not wait for handlers; use Wait for that.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		e.cancel()
		e.correlator.Close()
		e.closeErr = e.link.Close()
	})
	return e.closeErr
}

// Wait blocks until every dispatched handler has returned.
func (e *Endpoint) Wait() {
	e.wg.Wait()
}

func (e *Endpoint) write(env *wire.Envelope) error {
	data, err := wire.EncodeEnvelope(env)
	if err != nil {
		return err
	}
	e.logEnvelope(log.DirectionOut, env)
	return e.link.Send(data)
}

func (e *Endpoint) logEnvelope(dir log.Direction, env *wire.Envelope) {
	e.protocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: e.connID,
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    e.role,
		Message:      log.NewMessageEvent(env),
	})
}

var _ Channel = (*Endpoint)(nil)
