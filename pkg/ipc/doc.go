// Package ipc correlates calls and replies across the UI/worker process
// boundary.
//
// Three kinds of envelope cross the boundary (see package wire):
//
//   - Two-way calls carry a fresh correlation id and expect exactly one
//     reply. The Correlator registers a waiter before sending and routes
//     the reply back to it.
//   - One-way calls carry correlation id 0 and never get a reply.
//   - Notifications are unsolicited events pushed by the worker to the
//     single Target channel registered at startup.
//
// On the handling side a Dispatcher maps method names to handlers. Handler
// errors and panics are turned into a wire.RemoteError so that every
// two-way call gets a reply. Only the message text and an optional numeric
// code survive the boundary; use *Error to pick the code.
//
// Calls have no built-in timeout. Callers bound them with the context they
// pass to Call.
//
// Endpoint ties a Correlator and a Dispatcher to one transport.Link.
package ipc
