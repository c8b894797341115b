// Package wire defines the CBOR envelope format used between the UI process
// and the device worker process.
//
// Every frame on the process boundary carries exactly one Envelope. Envelopes
// use integer keys for compactness:
//
//	{
//	  1: kind,           // uint8: 1=call, 2=reply, 3=notification
//	  2: correlationId,  // uint32: 0 for one-way calls and notifications
//	  3: method,         // string: call method or notification event name
//	  4: payload,        // raw CBOR: call arguments, reply result, event data
//	  5: error           // {1: code, 2: message}, replies only
//	}
//
// # Calls
//
// A call with a non-zero correlation id expects exactly one reply carrying the
// same id. A call with correlation id 0 is one-way and never answered.
//
// # Errors
//
// Errors cross the boundary as RemoteError values holding a numeric code and
// a message string. Rich error values (wrapped chains, stack traces) are
// flattened to their message before encoding.
package wire
