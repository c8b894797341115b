package log

import (
	"time"

	"github.com/motorlink/motorlink-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the process-boundary link (UUID).
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether the UI or the worker recorded the event.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// DeviceID is the device identity the event concerns, if any.
	DeviceID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer.
	LayerTransport Layer = 0
	// LayerWire is the envelope layer.
	LayerWire Layer = 1
	// LayerService is the session/resource layer.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a call, reply or notification.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates which process recorded the event.
type Role uint8

const (
	// RoleUnknown is the zero value.
	RoleUnknown Role = 0
	// RoleUI indicates the UI process.
	RoleUI Role = 1
	// RoleWorker indicates the device worker process.
	RoleWorker Role = 2
	// RoleDaemon indicates a device daemon serving a controller.
	RoleDaemon Role = 3
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleUI:
		return "UI"
	case RoleWorker:
		return "WORKER"
	case RoleDaemon:
		return "DAEMON"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures frame sizes at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`
}

// MessageEvent captures a decoded envelope at the wire layer.
type MessageEvent struct {
	// Kind distinguishes call/reply/notification.
	Kind wire.Kind `cbor:"1,keyasint"`

	// CorrelationID matches calls and replies (0 for one-way traffic).
	CorrelationID uint32 `cbor:"2,keyasint,omitempty"`

	// Method is the call method or notification event name.
	Method string `cbor:"3,keyasint,omitempty"`

	// PayloadSize is the encoded payload length.
	PayloadSize int `cbor:"4,keyasint,omitempty"`

	// ErrorCode and ErrorMessage are set for error replies.
	ErrorCode    *uint16 `cbor:"5,keyasint,omitempty"`
	ErrorMessage string  `cbor:"6,keyasint,omitempty"`

	// Latency is the call round-trip time (replies only).
	Latency *time.Duration `cbor:"7,keyasint,omitempty"`
}

// NewMessageEvent summarizes an envelope for capture.
func NewMessageEvent(env *wire.Envelope) *MessageEvent {
	m := &MessageEvent{
		Kind:          env.Kind,
		CorrelationID: env.CorrelationID,
		Method:        env.Method,
		PayloadSize:   len(env.Payload),
	}
	if env.Error != nil {
		code := env.Error.Code
		m.ErrorCode = &code
		m.ErrorMessage = env.Error.Message
	}
	return m
}

// StateChangeEvent captures session and resource lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// Name identifies the entity instance (resource name, link id).
	Name string `cbor:"2,keyasint,omitempty"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"3,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"4,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"5,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityLink indicates the UI/worker link.
	StateEntityLink StateEntity = 0
	// StateEntitySession indicates a device session.
	StateEntitySession StateEntity = 1
	// StateEntityResource indicates a background resource.
	StateEntityResource StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityLink:
		return "LINK"
	case StateEntitySession:
		return "SESSION"
	case StateEntityResource:
		return "RESOURCE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
