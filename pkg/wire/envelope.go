package wire

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// OneWayID is the correlation id carried by one-way calls and notifications.
const OneWayID uint32 = 0

// Kind identifies the envelope type.
type Kind uint8

const (
	// KindCall is a call from one process to the other.
	KindCall Kind = 1

	// KindReply answers a two-way call.
	KindReply Kind = 2

	// KindNotification is an unsolicited event pushed to the target channel.
	KindNotification Kind = 3
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCall:
		return "CALL"
	case KindReply:
		return "REPLY"
	case KindNotification:
		return "NOTIFICATION"
	default:
		return "UNKNOWN"
	}
}

// Envelope is the single message shape exchanged on the process boundary.
type Envelope struct {
	Kind          Kind            `cbor:"1,keyasint"`
	CorrelationID uint32          `cbor:"2,keyasint,omitempty"`
	Method        string          `cbor:"3,keyasint,omitempty"`
	Payload       cbor.RawMessage `cbor:"4,keyasint,omitempty"`
	Error         *RemoteError    `cbor:"5,keyasint,omitempty"`
}

// IsOneWay reports whether the envelope is a call that expects no reply.
func (e *Envelope) IsOneWay() bool {
	return e.Kind == KindCall && e.CorrelationID == OneWayID
}

// Validate checks structural consistency of the envelope.
func (e *Envelope) Validate() error {
	switch e.Kind {
	case KindCall:
		if e.Method == "" {
			return errors.New("call without method")
		}
		if e.Error != nil {
			return errors.New("call carries an error")
		}
	case KindReply:
		if e.CorrelationID == OneWayID {
			return errors.New("reply without correlation id")
		}
	case KindNotification:
		if e.Method == "" {
			return errors.New("notification without event name")
		}
		if e.CorrelationID != OneWayID {
			return fmt.Errorf("notification with correlation id %d", e.CorrelationID)
		}
	default:
		return fmt.Errorf("unknown kind: %d", e.Kind)
	}
	return nil
}

// NewCall builds a call envelope. Use OneWayID for fire-and-forget calls.
func NewCall(id uint32, method string, args any) (*Envelope, error) {
	payload, err := EncodePayload(args)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Kind:          KindCall,
		CorrelationID: id,
		Method:        method,
		Payload:       payload,
	}, nil
}

// NewReply builds a reply envelope for the given correlation id.
// A non-nil rerr makes it an error reply and the result is dropped.
func NewReply(id uint32, result any, rerr *RemoteError) (*Envelope, error) {
	if rerr != nil {
		return &Envelope{Kind: KindReply, CorrelationID: id, Error: rerr}, nil
	}
	payload, err := EncodePayload(result)
	if err != nil {
		return nil, err
	}
	return &Envelope{Kind: KindReply, CorrelationID: id, Payload: payload}, nil
}

// NewNotification builds a notification envelope.
func NewNotification(event string, data any) (*Envelope, error) {
	payload, err := EncodePayload(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Kind: KindNotification, Method: event, Payload: payload}, nil
}

// RemoteError is the error shape that survives the process boundary.
//
// CBOR encoding:
//
//	{
//	  1: code,     // uint16, 0 = generic
//	  2: message   // string
//	}
type RemoteError struct {
	Code    uint16 `cbor:"1,keyasint,omitempty"`
	Message string `cbor:"2,keyasint"`
}

// Error implements error.
func (e *RemoteError) Error() string {
	if e.Code == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}
