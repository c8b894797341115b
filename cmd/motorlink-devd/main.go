// Command motorlink-devd serves a simulated CAN bus to device workers.
//
// The daemon stands in for the bus adapter process: every worker that
// connects gets its own link and drives the shared bus through it.
//
// Usage:
//
//	motorlink-devd [flags]
//
// Flags:
//
//	-network string       Listen network: unix or tcp (default "unix")
//	-listen string        Socket path or host:port (default "/tmp/motorlink-devd.sock")
//	-nodes string         Comma separated node ids on the bus (default "20501,20502")
//	-sample-period dur    Telemetry sample period (default 100ms)
//	-latency dur          Added to every bus transaction
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  File to capture protocol events (CBOR)
//	-state string         File keeping node ids and flash across restarts
//
// With -state, a saved bus replaces -nodes: nodes come back under the ids
// they were last assigned, with their burned parameters.
//
// Examples:
//
//	# Two nodes on a unix socket
//	motorlink-devd -nodes 20501,20502
//
//	# Slow bus on tcp with a protocol capture
//	motorlink-devd -network tcp -listen :7401 -latency 20ms -protocol-log devd.mlog
//
//	# Bus that remembers flash burns
//	motorlink-devd -state /var/lib/motorlink/bus.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/motorlink/motorlink-go/internal/worker"
	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/persistence"
	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/simulator"
	"github.com/motorlink/motorlink-go/pkg/transport"
)

// Config holds the daemon configuration.
type Config struct {
	Network      string
	Listen       string
	Nodes        string
	SamplePeriod time.Duration
	Latency      time.Duration
	LogLevel     string
	ProtocolLog  string
	State        string
}

var config Config

func init() {
	flag.StringVar(&config.Network, "network", transport.NetworkUnix, "Listen network: unix or tcp")
	flag.StringVar(&config.Listen, "listen", "/tmp/motorlink-devd.sock", "Socket path or host:port")
	flag.StringVar(&config.Nodes, "nodes", "20501,20502", "Comma separated node ids on the bus")
	flag.DurationVar(&config.SamplePeriod, "sample-period", simulator.DefaultSamplePeriod, "Telemetry sample period")
	flag.DurationVar(&config.Latency, "latency", 0, "Added to every bus transaction")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "File to capture protocol events (CBOR)")
	flag.StringVar(&config.State, "state", "", "File keeping node ids and flash across restarts")
}

func main() {
	flag.Parse()

	logger, err := setupLogging(config.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}
	if err := run(logger); err != nil {
		logger.Error("daemon stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	if err := validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	nodes, err := simulator.ParseNodes(config.Nodes)
	if err != nil {
		return err
	}

	var protocolLogger log.Logger
	if config.ProtocolLog != "" {
		fl, err := log.NewFileLogger(config.ProtocolLog)
		if err != nil {
			return fmt.Errorf("open protocol log: %w", err)
		}
		defer fl.Close()
		protocolLogger = fl
		logger.Info("capturing protocol events", "path", config.ProtocolLog)
	}

	bus, err := openBus(logger, nodes)
	if err != nil {
		return err
	}

	ln, err := transport.Listen(config.Network, config.Listen, transport.Config{})
	if err != nil {
		return err
	}
	defer ln.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("MotorLink device daemon", "network", config.Network, "addr", ln.Addr(), "nodes", bus.Nodes())
	err = worker.ServeController(ctx, ln, bus, logger, protocolLogger)
	logger.Info("goodbye")
	return err
}

// openBus creates the simulated bus, restoring it from the state file when
// one exists.
func openBus(logger *slog.Logger, nodes []resource.DeviceID) (*simulator.Bus, error) {
	var bus *simulator.Bus
	cfg := simulator.Config{
		Nodes:        nodes,
		SamplePeriod: config.SamplePeriod,
		Latency:      config.Latency,
		Logger:       logger.With("component", "bus"),
	}
	if config.State == "" {
		return simulator.NewBus(cfg), nil
	}

	store := persistence.NewBusStateStore(config.State)
	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load bus state: %w", err)
	}
	cfg.OnPersist = func() {
		if err := store.Save(bus.Snapshot()); err != nil {
			logger.Error("save bus state", "path", store.Path(), "error", err)
		}
	}
	bus = simulator.NewBus(cfg)
	if state != nil {
		bus.Restore(state)
		logger.Info("restored bus state", "path", store.Path(), "saved", state.SavedAt)
	} else if err := store.Save(bus.Snapshot()); err != nil {
		return nil, fmt.Errorf("save bus state: %w", err)
	}
	return bus, nil
}

func validateConfig() error {
	switch config.Network {
	case transport.NetworkUnix, transport.NetworkTCP:
	default:
		return fmt.Errorf("unknown network: %s", config.Network)
	}
	if config.Listen == "" {
		return fmt.Errorf("listen address required")
	}
	if config.SamplePeriod <= 0 {
		return fmt.Errorf("sample period must be positive, got %s", config.SamplePeriod)
	}
	if config.Latency < 0 {
		return fmt.Errorf("latency must not be negative, got %s", config.Latency)
	}
	return nil
}

func setupLogging(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: l}
	if l <= slog.LevelDebug {
		opts.AddSource = true
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}
