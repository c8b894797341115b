// Package resource implements the background activities bound to a device.
//
// A Resource is anything that generates traffic against the active device on
// its own schedule: a liveness poller, a heartbeated setpoint, a telemetry
// stream. Every resource supports the same lifecycle so a session can treat
// them uniformly:
//
//   - Pause stops new work and returns a Done handle for the work in flight
//   - Resume re-arms a paused resource (idempotent)
//   - Destroy stops the resource permanently and releases its handles
//
// Resources that can follow the device to a new identity without being
// recreated also implement Reassignable. Resources that cannot are "fixed";
// a session refuses to re-key while it holds one.
//
// # Timers
//
// Timer repeats an Action on a fixed period. Ticks are not serialized: a slow
// action may still be running when the next tick starts. Pause waits only for
// the unit that was in flight when the ticker stopped. Action failures are
// logged and never stop the timer.
//
// # Telemetry
//
// Telemetry owns a duplex Stream: commands go out (start, stop, add and remove
// signal), samples come back and are delivered to a Listener.
package resource
