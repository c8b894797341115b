// Package transport carries envelopes across the UI/worker process boundary.
//
// The transport layer handles:
//   - Length-prefixed message framing
//   - Unix-socket and TCP links between the two processes
//   - Link state management
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR Envelopes            │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│   Unix socket or TCP           │
//	└────────────────────────────────┘
//
// The transport is deliberately unaware of envelope contents; correlation of
// calls and replies happens one layer up in package ipc.
package transport
