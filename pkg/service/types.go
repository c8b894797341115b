package service

import (
	"errors"

	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/resource"
)

// Service errors.
var (
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrTelemetryNotStarted = errors.New("telemetry not started")
	ErrHeartbeatNotEnabled = errors.New("heartbeat not enabled")
	ErrUnexpectedResource  = errors.New("unexpected resource type")
)

// Resource names used in the device session.
const (
	TelemetryResource = "telemetry"
	heartbeatPrefix   = "heartbeat:"
)

// HeartbeatResource returns the session resource name for a heartbeat.
func HeartbeatResource(id resource.DeviceID) string {
	return heartbeatPrefix + string(id)
}

// EventType identifies a service event.
type EventType uint8

const (
	// EventConnected is emitted after a device was connected.
	EventConnected EventType = iota

	// EventDisconnected is emitted when the device was disconnected,
	// either on request or because the liveness ping lost it.
	EventDisconnected

	// EventHeartbeat is emitted after every heartbeated setpoint.
	EventHeartbeat

	// EventTelemetry carries telemetry stream events.
	EventTelemetry

	// EventIDChanged is emitted after the device moved to a new CAN id.
	EventIDChanged
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventHeartbeat:
		return "heartbeat"
	case EventTelemetry:
		return "telemetry"
	case EventIDChanged:
		return "idChanged"
	default:
		return "unknown"
	}
}

// Event is published to handlers and to the UI process.
type Event struct {
	Type       EventType          `cbor:"1,keyasint"`
	DeviceID   resource.DeviceID  `cbor:"2,keyasint,omitempty"`
	PreviousID resource.DeviceID  `cbor:"3,keyasint,omitempty"`
	Info       *device.Info       `cbor:"4,keyasint,omitempty"`
	Telemetry  resource.EventType `cbor:"5,keyasint,omitempty"`
	Sample     *resource.Sample   `cbor:"6,keyasint,omitempty"`
	Error      string             `cbor:"7,keyasint,omitempty"`
}

// EventHandler receives service events. Handlers are called synchronously
// from the goroutine that produced the event and must not block.
type EventHandler func(Event)

// Status is a snapshot of the session.
type Status struct {
	Device    resource.DeviceID    `cbor:"1,keyasint,omitempty"`
	Connected bool                 `cbor:"2,keyasint"`
	Paused    bool                 `cbor:"3,keyasint"`
	Resources []string             `cbor:"4,keyasint,omitempty"`
	Signals   []resource.SignalRef `cbor:"5,keyasint,omitempty"`
}
