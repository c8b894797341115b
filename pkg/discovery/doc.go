// Package discovery finds motorlink workers on the local network.
//
// A worker listening on TCP advertises itself as _motorlink._tcp with TXT
// records describing the protocol version and the nodes on its bus:
//
//	ver=1
//	fw=sim-1.0.0
//	nodes=20501,20502
//
// The UI browses for the service when no worker address is given.
package discovery
