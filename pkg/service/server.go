package service

import (
	"context"

	"github.com/motorlink/motorlink-go/pkg/ipc"
	"github.com/motorlink/motorlink-go/pkg/resource"
)

// Register exposes svc on d for the UI process.
func Register(d *ipc.Dispatcher, svc *Service) {
	h := handlers{svc: svc}

	d.HandleFunc(MethodConnect, h.connect)
	d.HandleFunc(MethodDisconnect, h.noArgs(svc.Disconnect))
	d.HandleFunc(MethodStatus, h.status)
	d.HandleFunc(MethodPing, h.noArgs(svc.Ping))
	d.HandleFunc(MethodTelemetryList, h.telemetryList)
	d.HandleFunc(MethodChangeCANID, h.changeCANID)
	d.HandleFunc(MethodBurnFlash, h.noArgs(svc.BurnFlash))
	d.HandleFunc(MethodFactoryReset, h.noArgs(svc.FactoryReset))
	d.HandleFunc(MethodSetParameter, h.setParameter)
	d.HandleFunc(MethodGetParameter, h.getParameter)

	d.HandleFunc(MethodHeartbeatEnable, h.heartbeatEnable)
	d.HandleFunc(MethodHeartbeatUpdate, h.heartbeatUpdate)
	d.HandleFunc(MethodHeartbeatDisable, h.heartbeatDisable)

	d.HandleFunc(MethodTelemetryStart, h.noArgs(svc.StartTelemetry))
	d.HandleFunc(MethodTelemetryAdd, h.signal(svc.AddSignal))
	d.HandleFunc(MethodTelemetryRemove, h.signal(svc.RemoveSignal))
	d.HandleFunc(MethodTelemetryStop, h.noArgs(svc.StopTelemetry))
}

type handlers struct {
	svc *Service
}

func (h handlers) noArgs(fn func(context.Context) error) func(context.Context, ipc.Args) (any, error) {
	return func(ctx context.Context, _ ipc.Args) (any, error) {
		return nil, toWire(fn(ctx))
	}
}

func (h handlers) connect(ctx context.Context, args ipc.Args) (any, error) {
	var req DeviceRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	info, err := h.svc.Connect(ctx, req.Device)
	if err != nil {
		return nil, toWire(err)
	}
	return info, nil
}

func (h handlers) status(context.Context, ipc.Args) (any, error) {
	return h.svc.Status(), nil
}

func (h handlers) telemetryList(ctx context.Context, _ ipc.Args) (any, error) {
	signals, err := h.svc.TelemetryList(ctx)
	if err != nil {
		return nil, toWire(err)
	}
	return signals, nil
}

func (h handlers) changeCANID(ctx context.Context, args ipc.Args) (any, error) {
	var req DeviceRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	return nil, toWire(h.svc.ChangeCANID(ctx, req.Device))
}

func (h handlers) setParameter(ctx context.Context, args ipc.Args) (any, error) {
	var req ParameterRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	return nil, toWire(h.svc.SetParameter(ctx, req.Key, req.Value))
}

func (h handlers) getParameter(ctx context.Context, args ipc.Args) (any, error) {
	var req ParameterRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	v, err := h.svc.GetParameter(ctx, req.Key)
	if err != nil {
		return nil, toWire(err)
	}
	return ParameterResponse{Value: v}, nil
}

func (h handlers) heartbeatEnable(_ context.Context, args ipc.Args) (any, error) {
	var req HeartbeatRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	return nil, toWire(h.svc.EnableHeartbeat(req.Device, req.Setpoint))
}

func (h handlers) heartbeatUpdate(_ context.Context, args ipc.Args) (any, error) {
	var req HeartbeatRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	return nil, h.svc.UpdateHeartbeat(req.Device, req.Setpoint)
}

func (h handlers) heartbeatDisable(ctx context.Context, args ipc.Args) (any, error) {
	var req DeviceRequest
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	return nil, toWire(h.svc.DisableHeartbeat(ctx, req.Device))
}

func (h handlers) signal(fn func(resource.DeviceID, resource.SignalID) error) func(context.Context, ipc.Args) (any, error) {
	return func(_ context.Context, args ipc.Args) (any, error) {
		var req SignalRequest
		if err := args.Decode(&req); err != nil {
			return nil, err
		}
		return nil, toWire(fn(req.Device, req.Signal))
	}
}
