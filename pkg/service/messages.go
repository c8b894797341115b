package service

import (
	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/resource"
)

// NotifyEvent is the notification carrying an Event to the UI process.
const NotifyEvent = "service.event"

// Method names served by the worker.
const (
	MethodConnect       = "session.connect"
	MethodDisconnect    = "session.disconnect"
	MethodStatus        = "session.status"
	MethodPing          = "device.ping"
	MethodTelemetryList = "device.telemetryList"
	MethodChangeCANID   = "device.changeId"
	MethodBurnFlash     = "device.burnFlash"
	MethodFactoryReset  = "device.factoryReset"
	MethodSetParameter  = "param.set"
	MethodGetParameter  = "param.get"

	MethodHeartbeatEnable  = "heartbeat.enable"
	MethodHeartbeatUpdate  = "heartbeat.update" // one-way
	MethodHeartbeatDisable = "heartbeat.disable"

	MethodTelemetryStart  = "telemetry.start"
	MethodTelemetryAdd    = "telemetry.add"
	MethodTelemetryRemove = "telemetry.remove"
	MethodTelemetryStop   = "telemetry.stop"
)

// DeviceRequest names a device.
type DeviceRequest struct {
	Device resource.DeviceID `cbor:"1,keyasint"`
}

// HeartbeatRequest enables or updates a heartbeat.
type HeartbeatRequest struct {
	Device   resource.DeviceID `cbor:"1,keyasint"`
	Setpoint float64           `cbor:"2,keyasint"`
}

// SignalRequest adds or removes a telemetry signal.
type SignalRequest struct {
	Device resource.DeviceID `cbor:"1,keyasint"`
	Signal resource.SignalID `cbor:"2,keyasint"`
}

// ParameterRequest reads or writes a parameter of the current device.
type ParameterRequest struct {
	Key   device.ParameterKey `cbor:"1,keyasint"`
	Value float64             `cbor:"2,keyasint,omitempty"`
}

// ParameterResponse carries a parameter value.
type ParameterResponse struct {
	Value float64 `cbor:"1,keyasint"`
}
