// Package simulator provides an in-memory CAN bus of motor-controller
// nodes. Bus implements device.Controller and is used by the worker binary
// when no hardware is attached, and by tests.
package simulator
