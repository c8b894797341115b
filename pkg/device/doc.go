// Package device defines the motor-controller RPC surface shared by the UI
// and worker processes.
//
// Controller is implemented twice: by the worker's bus driver (see package
// simulator) and by Client, which forwards every operation across the
// process boundary through an ipc correlator. Serve registers the worker
// side handlers that back Client.
//
// Telemetry uses a small stream protocol on top of ipc:
//
//	telemetry.open   two-way   returns a stream id
//	telemetry.write  one-way   control command for a stream
//	telemetry.end    two-way   half-closes a stream
//	telemetry.sample notify    one sample for a stream
//	telemetry.closed notify    the stream is fully closed
package device
