package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/motorlink/motorlink-go/pkg/ipc"
	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/session"
)

// Error codes for session faults carried across the process boundary.
const (
	CodeNoDevice            uint16 = 200
	CodePaused              uint16 = 201
	CodeDuplicateResource   uint16 = 202
	CodeNotReassignable     uint16 = 203
	CodeSessionChanged      uint16 = 204
	CodeTelemetryNotStarted uint16 = 205
	CodeHeartbeatNotEnabled uint16 = 206
	CodeResourceDestroyed   uint16 = 207
	CodeInvalidConfig       uint16 = 208
)

var codedErrors = []struct {
	code uint16
	err  error
}{
	{CodeNoDevice, session.ErrNoDevice},
	{CodePaused, session.ErrPaused},
	{CodeDuplicateResource, session.ErrDuplicateResource},
	{CodeNotReassignable, session.ErrNotReassignable},
	{CodeSessionChanged, session.ErrSessionChanged},
	{CodeTelemetryNotStarted, ErrTelemetryNotStarted},
	{CodeHeartbeatNotEnabled, ErrHeartbeatNotEnabled},
	{CodeResourceDestroyed, resource.ErrDestroyed},
	{CodeInvalidConfig, ErrInvalidConfig},
}

// toWire attaches a code to session errors. Errors that already carry a
// code (device faults) pass through unchanged.
func toWire(err error) error {
	if err == nil || ipc.CodeOf(err) != ipc.CodeGeneric {
		return err
	}
	for _, c := range codedErrors {
		if errors.Is(err, c.err) {
			return &ipc.Error{Code: c.code, Message: err.Error()}
		}
	}
	return err
}

// fromWire turns a coded session error back into its sentinel so callers
// can use errors.Is on either side of the boundary.
func fromWire(err error) error {
	if err == nil {
		return nil
	}
	code := ipc.CodeOf(err)
	for _, c := range codedErrors {
		if c.code != code {
			continue
		}
		msg := err.Error()
		if msg == c.err.Error() {
			return c.err
		}
		return fmt.Errorf("%w: %s", c.err, strings.TrimPrefix(msg, c.err.Error()+": "))
	}
	return err
}
