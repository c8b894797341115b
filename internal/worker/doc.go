// Package worker wires the worker and device daemon processes.
//
// Run serves one UI link: the service it creates publishes its events to
// that link, so the worker exits when the UI goes away. ServeController
// exposes a device.Controller to any number of workers, and
// DialController is the worker side of that link.
package worker
