// Package connection establishes the link from the UI process to the
// worker.
//
// The worker may still be starting when the UI comes up, so dialing is
// retried with exponential backoff:
//
//  1. Initial delay: 50 milliseconds
//  2. Exponential increase: 100ms, 200ms, 400ms, ...
//  3. Maximum delay: 2 seconds
//  4. Continue at the maximum until the attempt limit or the context ends
//
// # Jitter
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
//
// A link is established once the socket connects. Losing an established
// link is not retried: the session state lives in the worker and cannot
// be recovered by the UI.
package connection
