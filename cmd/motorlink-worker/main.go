// Command motorlink-worker is the device worker process.
//
// The worker owns the device session and its background resources. A UI
// process connects to it and drives the session through calls; heartbeat
// results, telemetry samples and connection changes are pushed back to the
// UI as notifications. The bus is either simulated in process or reached
// through a motorlink-devd daemon.
//
// Usage:
//
//	motorlink-worker [flags]
//
// Flags:
//
//	-config string          Service configuration file (YAML, or TOML by extension)
//	-network string         Listen network: unix or tcp (default "unix")
//	-listen string          Socket path or host:port (default "/tmp/motorlink-worker.sock")
//	-nodes string           Simulated node ids, used without -device (default "20501")
//	-device string          Address of a motorlink-devd daemon
//	-device-network string  Network of the daemon address (default "unix")
//	-mdns                   Advertise a tcp listener via mDNS
//	-instance string        Advertised instance name (default: hostname)
//	-interface string       Network interface for mDNS (default: all)
//	-once                   Exit after the first UI disconnects
//	-log-level string       Log level, overrides the config file
//	-protocol-log string    Protocol capture file, overrides the config file
//
// A configuration file looks like:
//
//	ping_interval: 1s
//	heartbeat_period: 200ms
//	call_timeout: 2s
//	telemetry_buffer: 64
//	log_level: info
//	protocol_log: /var/log/motorlink/worker.mlog
//
// The same keys are accepted in a .toml file. MOTORLINK_PING_INTERVAL,
// MOTORLINK_HEARTBEAT_PERIOD, MOTORLINK_CALL_TIMEOUT,
// MOTORLINK_TELEMETRY_BUFFER, MOTORLINK_LOG_LEVEL and MOTORLINK_PROTOCOL_LOG
// override the file; flags override the environment.
//
// Examples:
//
//	# Simulated bus on the default socket
//	motorlink-worker -nodes 20501,20502
//
//	# Discoverable worker in front of a device daemon
//	motorlink-worker -network tcp -listen :7400 -mdns -device /tmp/motorlink-devd.sock
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/motorlink/motorlink-go/internal/worker"
	"github.com/motorlink/motorlink-go/pkg/connection"
	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/discovery"
	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/service"
	"github.com/motorlink/motorlink-go/pkg/simulator"
	"github.com/motorlink/motorlink-go/pkg/transport"
)

// Config holds the command line configuration.
type Config struct {
	ConfigFile    string
	Network       string
	Listen        string
	Nodes         string
	Device        string
	DeviceNetwork string
	MDNS          bool
	Instance      string
	Interface     string
	Once          bool
	LogLevel      string
	ProtocolLog   string
}

var config Config

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "Service configuration file (YAML, or TOML by extension)")
	flag.StringVar(&config.Network, "network", transport.NetworkUnix, "Listen network: unix or tcp")
	flag.StringVar(&config.Listen, "listen", "/tmp/motorlink-worker.sock", "Socket path or host:port")
	flag.StringVar(&config.Nodes, "nodes", "20501", "Simulated node ids, used without -device")
	flag.StringVar(&config.Device, "device", "", "Address of a motorlink-devd daemon")
	flag.StringVar(&config.DeviceNetwork, "device-network", transport.NetworkUnix, "Network of the daemon address")
	flag.BoolVar(&config.MDNS, "mdns", false, "Advertise a tcp listener via mDNS")
	flag.StringVar(&config.Instance, "instance", "", "Advertised instance name (default: hostname)")
	flag.StringVar(&config.Interface, "interface", "", "Network interface for mDNS (default: all)")
	flag.BoolVar(&config.Once, "once", false, "Exit after the first UI disconnects")
	flag.StringVar(&config.LogLevel, "log-level", "", "Log level, overrides the config file")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Protocol capture file, overrides the config file")
}

func main() {
	flag.Parse()

	svcCfg, err := loadServiceConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}
	logger := setupLogging(svcCfg)

	if err := run(logger, svcCfg); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

// loadServiceConfig reads the config file, if any, then applies
// environment and flag overrides in that order.
func loadServiceConfig() (service.Config, error) {
	cfg := service.DefaultConfig()
	if config.ConfigFile != "" {
		var err error
		if cfg, err = service.LoadConfig(config.ConfigFile); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if config.LogLevel != "" {
		cfg.LogLevel = config.LogLevel
	}
	if config.ProtocolLog != "" {
		cfg.ProtocolLog = config.ProtocolLog
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, validateConfig()
}

func validateConfig() error {
	switch config.Network {
	case transport.NetworkUnix, transport.NetworkTCP:
	default:
		return fmt.Errorf("unknown network: %s", config.Network)
	}
	if config.MDNS && config.Network != transport.NetworkTCP {
		return errors.New("-mdns needs a tcp listener")
	}
	if config.Device == "" && config.Nodes == "" {
		return errors.New("either -nodes or -device is required")
	}
	if config.Instance != "" {
		if err := discovery.ValidateInstanceName(config.Instance); err != nil {
			return err
		}
	}
	return nil
}

func setupLogging(cfg service.Config) *slog.Logger {
	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: level}
	if level <= slog.LevelDebug {
		opts.AddSource = true
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// setupProtocolLogging opens the capture file. At debug level protocol
// events are also written to the operational log.
func setupProtocolLogging(logger *slog.Logger, cfg service.Config) (log.Logger, func(), error) {
	var loggers []log.Logger
	closeFn := func() {}

	if cfg.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, nil, fmt.Errorf("open protocol log: %w", err)
		}
		loggers = append(loggers, fl)
		closeFn = func() { _ = fl.Close() }
		logger.Info("capturing protocol events", "path", cfg.ProtocolLog)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		loggers = append(loggers, log.NewSlogAdapter(logger.With("component", "protocol")))
	}

	switch len(loggers) {
	case 0:
		return nil, closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return log.NewMultiLogger(loggers...), closeFn, nil
	}
}

func run(logger *slog.Logger, svcCfg service.Config) error {
	protocolLogger, closeLog, err := setupProtocolLogging(logger, svcCfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl, nodes, closeCtrl, err := openController(ctx, logger, protocolLogger, svcCfg)
	if err != nil {
		return err
	}
	defer closeCtrl()

	linkLost := make(chan error, 1)
	if rc, ok := ctrl.(*worker.RemoteController); ok {
		go func() {
			select {
			case <-rc.Done():
				linkLost <- fmt.Errorf("device daemon link lost: %w", rc.Err())
				stop()
			case <-ctx.Done():
			}
		}()
	}

	ln, err := transport.Listen(config.Network, config.Listen, transport.Config{})
	if err != nil {
		return err
	}
	defer ln.Close()

	cfg := worker.Config{
		Service:        svcCfg,
		Instance:       config.Instance,
		Nodes:          nodes,
		Logger:         logger,
		ProtocolLogger: protocolLogger,
	}
	if config.Device == "" {
		cfg.Firmware = simulator.Firmware
	}
	if cfg.Instance == "" {
		cfg.Instance, _ = os.Hostname()
	}
	if config.MDNS {
		cfg.Advertiser = discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{Interface: config.Interface})
	}

	logger.Info("MotorLink worker", "network", config.Network, "addr", ln.Addr())
	for {
		err := worker.Run(ctx, ln, ctrl, cfg)
		if ctx.Err() != nil {
			select {
			case err := <-linkLost:
				return err
			default:
			}
			logger.Info("goodbye")
			return nil
		}
		if err != nil {
			logger.Warn("UI link ended", "error", err)
		}
		if config.Once {
			return err
		}
	}
}

// openController returns the simulated bus, or a link to a device daemon
// when -device is set.
func openController(ctx context.Context, logger *slog.Logger, protocolLogger log.Logger, svcCfg service.Config) (device.Controller, []resource.DeviceID, func(), error) {
	if config.Device == "" {
		nodes, err := simulator.ParseNodes(config.Nodes)
		if err != nil {
			return nil, nil, nil, err
		}
		bus := simulator.NewBus(simulator.Config{
			Nodes:  nodes,
			Logger: logger.With("component", "bus"),
		})
		logger.Info("simulated bus", "nodes", nodes)
		return bus, nodes, func() {}, nil
	}

	dialer := &connection.Dialer{
		Network: config.DeviceNetwork,
		Addr:    config.Device,
		Logger:  logger,
	}
	rc, err := worker.DialController(ctx, dialer, svcCfg.TelemetryBuffer, logger.With("component", "devd"), protocolLogger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to device daemon: %w", err)
	}
	logger.Info("connected to device daemon", "addr", config.Device)
	return rc, nil, func() { _ = rc.Close() }, nil
}
