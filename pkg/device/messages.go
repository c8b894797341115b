package device

import "github.com/motorlink/motorlink-go/pkg/resource"

// Method names.
const (
	MethodConnect       = "connect"
	MethodDisconnect    = "disconnect"
	MethodPing          = "ping"
	MethodSetParameter  = "setParameter"
	MethodGetParameter  = "getParameter"
	MethodSetpoint      = "setpoint"
	MethodBurnFlash     = "burnFlash"
	MethodFactoryReset  = "factoryReset"
	MethodIDAssignment  = "idAssignment"
	MethodTelemetryList = "telemetryList"

	MethodTelemetryOpen  = "telemetry.open"
	MethodTelemetryWrite = "telemetry.write"
	MethodTelemetryEnd   = "telemetry.end"
)

// Notification event names.
const (
	EventTelemetrySample = "telemetry.sample"
	EventTelemetryClosed = "telemetry.closed"
)

// DeviceRequest addresses a device.
type DeviceRequest struct {
	Device resource.DeviceID `cbor:"1,keyasint"`
}

// ParameterRequest reads or writes one parameter.
type ParameterRequest struct {
	Device resource.DeviceID `cbor:"1,keyasint"`
	Key    ParameterKey      `cbor:"2,keyasint"`
	Value  float64           `cbor:"3,keyasint,omitempty"`
}

// ParameterResponse carries a parameter value.
type ParameterResponse struct {
	Key   ParameterKey `cbor:"1,keyasint"`
	Value float64      `cbor:"2,keyasint"`
}

// SetpointRequest carries a setpoint.
type SetpointRequest struct {
	Device resource.DeviceID `cbor:"1,keyasint"`
	Value  float64           `cbor:"2,keyasint"`
}

// IDAssignmentRequest moves a device to a new id.
type IDAssignmentRequest struct {
	Device resource.DeviceID `cbor:"1,keyasint"`
	NewID  resource.DeviceID `cbor:"2,keyasint"`
}

// StreamRef names an open telemetry stream.
type StreamRef struct {
	Stream uint32 `cbor:"1,keyasint"`
}

// StreamWrite carries a control command for a stream.
type StreamWrite struct {
	Stream  uint32                    `cbor:"1,keyasint"`
	Command resource.TelemetryCommand `cbor:"2,keyasint"`
}

// StreamSample carries one sample for a stream.
type StreamSample struct {
	Stream uint32          `cbor:"1,keyasint"`
	Sample resource.Sample `cbor:"2,keyasint"`
}

// StreamClosed reports that a stream has closed, with the error that closed
// it, if any.
type StreamClosed struct {
	Stream uint32 `cbor:"1,keyasint"`
	Error  string `cbor:"2,keyasint,omitempty"`
}
