package ipc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/motorlink/motorlink-go/pkg/wire"
)

// Args is the undecoded argument payload of a call.
type Args struct {
	raw cbor.RawMessage
}

// NewArgs wraps a raw payload.
func NewArgs(raw cbor.RawMessage) Args {
	return Args{raw: raw}
}

// Decode decodes the arguments into v. Decode failures carry
// CodeBadRequest.
func (a Args) Decode(v any) error {
	if err := wire.DecodePayload(a.raw, v); err != nil {
		return &Error{Code: CodeBadRequest, Message: err.Error()}
	}
	return nil
}

// Raw returns the encoded arguments.
func (a Args) Raw() cbor.RawMessage {
	return a.raw
}

// String implements fmt.Stringer.
func (a Args) String() string {
	return fmt.Sprintf("args(%d bytes)", len(a.raw))
}

// ReplyFunc completes a call. Only the first invocation has an effect.
type ReplyFunc func(result any, err error)

// HandlerFunc handles a call in callback form. The handler may reply
// before returning or later from another goroutine.
type HandlerFunc func(ctx context.Context, args Args, reply ReplyFunc)

// Dispatcher routes incoming calls to registered handlers.
type Dispatcher struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers h for method, replacing any previous handler.
func (d *Dispatcher) Handle(method string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[method] = h
}

// HandleFunc registers a handler that returns its result instead of
// calling back.
func (d *Dispatcher) HandleFunc(method string, fn func(ctx context.Context, args Args) (any, error)) {
	d.Handle(method, func(ctx context.Context, args Args, reply ReplyFunc) {
		reply(fn(ctx, args))
	})
}

// Methods returns the number of registered handlers.
func (d *Dispatcher) Methods() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}

// Dispatch runs the handler for call. For two-way calls respond receives
// exactly one reply envelope, whatever the handler does. One-way calls
// never produce a reply.
func (d *Dispatcher) Dispatch(ctx context.Context, call *wire.Envelope, respond func(*wire.Envelope) error) {
	d.mu.RLock()
	h, ok := d.handlers[call.Method]
	d.mu.RUnlock()

	reply := d.replier(call, respond)

	if !ok {
		reply(nil, Errorf(CodeUnknownMethod, "unknown method %q", call.Method))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("ipc: handler panicked",
				"method", call.Method,
				"panic", r)
			reply(nil, Errorf(CodeInternal, "handler %s panicked: %v", call.Method, r))
		}
	}()

	h(ctx, NewArgs(call.Payload), reply)
}

func (d *Dispatcher) replier(call *wire.Envelope, respond func(*wire.Envelope) error) ReplyFunc {
	var once sync.Once
	return func(result any, err error) {
		once.Do(func() {
			if call.IsOneWay() {
				if err != nil {
					d.logger.Debug("ipc: one-way call failed",
						"method", call.Method,
						"error", err)
				}
				return
			}

			env, encErr := wire.NewReply(call.CorrelationID, result, toRemote(err))
			if encErr != nil {
				env, _ = wire.NewReply(call.CorrelationID, nil,
					toRemote(Errorf(CodeInternal, "encode result: %v", encErr)))
			}
			if sendErr := respond(env); sendErr != nil {
				d.logger.Warn("ipc: failed to send reply",
					"method", call.Method,
					"id", call.CorrelationID,
					"error", sendErr)
			}
		})
	}
}
