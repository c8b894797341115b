package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/version"
)

// Service type constants for mDNS.
const (
	// ServiceType is the service type advertised by workers.
	ServiceType = "_motorlink._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// ProtocolVersion is advertised in the ver TXT record.
	ProtocolVersion = version.Current

	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63

	// DefaultTTL is the record TTL used when none is configured.
	DefaultTTL = 120 * time.Second

	// BrowseTimeout bounds FindWorker when the context has no deadline.
	BrowseTimeout = 5 * time.Second
)

// TXT record keys.
const (
	TXTKeyVersion  = "ver"
	TXTKeyFirmware = "fw"
	TXTKeyNodes    = "nodes"
)

// Discovery errors.
var (
	ErrInvalidTXT          = errors.New("invalid TXT record")
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrInvalidPort         = errors.New("invalid port")
	ErrNotFound            = errors.New("no worker found")
)

// WorkerInfo is what a worker advertises.
type WorkerInfo struct {
	// Instance is the mDNS instance name.
	Instance string

	// Port is the TCP port the worker listens on.
	Port uint16

	// Firmware reported by the bus (optional).
	Firmware string

	// Nodes present on the bus when advertising started.
	Nodes []resource.DeviceID
}

// Validate checks the info before it is advertised.
func (w *WorkerInfo) Validate() error {
	if err := ValidateInstanceName(w.Instance); err != nil {
		return err
	}
	if w.Port == 0 {
		return ErrInvalidPort
	}
	return nil
}

// WorkerService is a worker found on the network.
type WorkerService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string
	Version      string
	Firmware     string
	Nodes        []resource.DeviceID
}

// Addr returns a dialable host:port, preferring the first address.
func (s *WorkerService) Addr() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}

// String implements fmt.Stringer.
func (s *WorkerService) String() string {
	return fmt.Sprintf("%s (%s, nodes %v)", s.InstanceName, s.Addr(), s.Nodes)
}

// ValidateInstanceName checks that name fits an mDNS label.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
