package device

import (
	"context"

	"github.com/motorlink/motorlink-go/pkg/resource"
)

// ParameterKey identifies a device parameter. The key space is opaque.
type ParameterKey uint16

// Info describes a connected device.
type Info struct {
	ID       resource.DeviceID `cbor:"1,keyasint"`
	Firmware string            `cbor:"2,keyasint,omitempty"`
	Serial   string            `cbor:"3,keyasint,omitempty"`
}

// SignalInfo describes one telemetry signal a device can stream.
type SignalInfo struct {
	ID   resource.SignalID `cbor:"1,keyasint"`
	Name string            `cbor:"2,keyasint"`
	Unit string            `cbor:"3,keyasint,omitempty"`
}

// Controller is the motor-controller RPC surface.
type Controller interface {
	// Connect opens the device and returns its description.
	Connect(ctx context.Context, id resource.DeviceID) (*Info, error)

	// Disconnect releases the device.
	Disconnect(ctx context.Context, id resource.DeviceID) error

	// Ping checks the device is still on the bus.
	Ping(ctx context.Context, id resource.DeviceID) error

	SetParameter(ctx context.Context, id resource.DeviceID, key ParameterKey, value float64) error
	GetParameter(ctx context.Context, id resource.DeviceID, key ParameterKey) (float64, error)

	// Setpoint sends a motion setpoint. It is also the heartbeat payload.
	Setpoint(ctx context.Context, id resource.DeviceID, value float64) error

	// BurnFlash persists the current parameters.
	BurnFlash(ctx context.Context, id resource.DeviceID) error

	// FactoryReset restores factory parameters.
	FactoryReset(ctx context.Context, id resource.DeviceID) error

	// IDAssignment moves the device to a new bus id.
	IDAssignment(ctx context.Context, id, newID resource.DeviceID) error

	// TelemetryList returns the signals the device can stream.
	TelemetryList(ctx context.Context, id resource.DeviceID) ([]SignalInfo, error)

	// OpenTelemetry opens a duplex telemetry stream. The stream lives until
	// it is half-closed and drained, independent of ctx.
	OpenTelemetry(ctx context.Context) (resource.Stream, error)
}
