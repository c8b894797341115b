// Package service runs the device session in the worker process.
//
// A Service binds a device.Controller to a session.Session. Connecting a
// device arms a liveness timer; the caller may add a heartbeated setpoint
// and a telemetry stream. Exclusive operations (CAN id change, flash burn,
// factory reset, parameter access) pause every background activity first
// and resume it afterwards.
//
// Events are delivered to local handlers registered with OnEvent and, when
// a notification target is set, published to the UI process. The UI side
// drives the worker through Remote, which mirrors the Service API over an
// ipc.Endpoint.
package service
