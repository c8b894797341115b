package device

import "github.com/motorlink/motorlink-go/pkg/ipc"

// Device error codes carried by ipc.Error.
const (
	CodeDeviceNotFound uint16 = 100
	CodeTimeout        uint16 = 101
	CodeInvalidParam   uint16 = 102
	CodeStreamNotFound uint16 = 103
)

// Device errors. They match remote errors with the same code under
// errors.Is, whatever the message.
var (
	ErrDeviceNotFound = &ipc.Error{Code: CodeDeviceNotFound, Message: "device not found"}
	ErrTimeout        = &ipc.Error{Code: CodeTimeout, Message: "device did not respond"}
	ErrInvalidParam   = &ipc.Error{Code: CodeInvalidParam, Message: "invalid parameter"}
	ErrStreamNotFound = &ipc.Error{Code: CodeStreamNotFound, Message: "telemetry stream not found"}
)
