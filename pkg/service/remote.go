package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/ipc"
	"github.com/motorlink/motorlink-go/pkg/resource"
)

// Remote drives a worker's Service from the UI process. Notifications
// received by the UI endpoint must be fed to HandleNotification.
type Remote struct {
	caller device.Caller
	logger *slog.Logger

	mu       sync.RWMutex
	handlers []EventHandler
}

// NewRemote creates a remote over caller.
func NewRemote(caller device.Caller, logger *slog.Logger) *Remote {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Remote{caller: caller, logger: logger}
}

// OnEvent registers a handler for events published by the worker.
func (r *Remote) OnEvent(handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handler)
}

// HandleNotification decodes a service event and delivers it to the
// handlers. It reports whether the notification was a service event.
func (r *Remote) HandleNotification(event string, args ipc.Args) bool {
	if event != NotifyEvent {
		return false
	}

	var ev Event
	if err := args.Decode(&ev); err != nil {
		r.logger.Warn("malformed service event", "error", err)
		return true
	}

	r.mu.RLock()
	handlers := r.handlers
	r.mu.RUnlock()
	for _, handler := range handlers {
		handler(ev)
	}
	return true
}

// Connect connects the worker to id.
func (r *Remote) Connect(ctx context.Context, id resource.DeviceID) (*device.Info, error) {
	var info device.Info
	if err := r.call(ctx, MethodConnect, DeviceRequest{Device: id}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Disconnect releases the current device.
func (r *Remote) Disconnect(ctx context.Context) error {
	return r.call(ctx, MethodDisconnect, nil, nil)
}

// Status returns the worker's session snapshot.
func (r *Remote) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := r.call(ctx, MethodStatus, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Ping checks the current device.
func (r *Remote) Ping(ctx context.Context) error {
	return r.call(ctx, MethodPing, nil, nil)
}

// TelemetryList lists the signals of the current device.
func (r *Remote) TelemetryList(ctx context.Context) ([]device.SignalInfo, error) {
	var signals []device.SignalInfo
	if err := r.call(ctx, MethodTelemetryList, nil, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// ChangeCANID moves the current device to newID.
func (r *Remote) ChangeCANID(ctx context.Context, newID resource.DeviceID) error {
	return r.call(ctx, MethodChangeCANID, DeviceRequest{Device: newID}, nil)
}

// BurnFlash persists the device parameters.
func (r *Remote) BurnFlash(ctx context.Context) error {
	return r.call(ctx, MethodBurnFlash, nil, nil)
}

// FactoryReset restores the device defaults.
func (r *Remote) FactoryReset(ctx context.Context) error {
	return r.call(ctx, MethodFactoryReset, nil, nil)
}

// SetParameter writes a parameter.
func (r *Remote) SetParameter(ctx context.Context, key device.ParameterKey, value float64) error {
	return r.call(ctx, MethodSetParameter, ParameterRequest{Key: key, Value: value}, nil)
}

// GetParameter reads a parameter.
func (r *Remote) GetParameter(ctx context.Context, key device.ParameterKey) (float64, error) {
	var resp ParameterResponse
	if err := r.call(ctx, MethodGetParameter, ParameterRequest{Key: key}, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// EnableHeartbeat starts a heartbeated setpoint.
func (r *Remote) EnableHeartbeat(ctx context.Context, id resource.DeviceID, setpoint float64) error {
	return r.call(ctx, MethodHeartbeatEnable, HeartbeatRequest{Device: id, Setpoint: setpoint}, nil)
}

// UpdateHeartbeat changes the heartbeated setpoint without waiting for the
// worker.
func (r *Remote) UpdateHeartbeat(id resource.DeviceID, setpoint float64) error {
	return r.caller.Notify(MethodHeartbeatUpdate, HeartbeatRequest{Device: id, Setpoint: setpoint})
}

// DisableHeartbeat stops a heartbeat.
func (r *Remote) DisableHeartbeat(ctx context.Context, id resource.DeviceID) error {
	return r.call(ctx, MethodHeartbeatDisable, DeviceRequest{Device: id}, nil)
}

// StartTelemetry opens the telemetry stream.
func (r *Remote) StartTelemetry(ctx context.Context) error {
	return r.call(ctx, MethodTelemetryStart, nil, nil)
}

// AddSignal subscribes to a signal.
func (r *Remote) AddSignal(ctx context.Context, id resource.DeviceID, signal resource.SignalID) error {
	return r.call(ctx, MethodTelemetryAdd, SignalRequest{Device: id, Signal: signal}, nil)
}

// RemoveSignal unsubscribes from a signal.
func (r *Remote) RemoveSignal(ctx context.Context, id resource.DeviceID, signal resource.SignalID) error {
	return r.call(ctx, MethodTelemetryRemove, SignalRequest{Device: id, Signal: signal}, nil)
}

// StopTelemetry closes the telemetry stream.
func (r *Remote) StopTelemetry(ctx context.Context) error {
	return r.call(ctx, MethodTelemetryStop, nil, nil)
}

func (r *Remote) call(ctx context.Context, method string, args, result any) error {
	return fromWire(r.caller.Call(ctx, method, args, result))
}
