// Command motorlink-ui is the operator front end of a MotorLink worker.
//
// It connects to a running motorlink-worker, retrying while the worker is
// still starting, and offers an interactive shell to drive the device
// session. Heartbeat failures, telemetry samples and connection changes
// pushed by the worker are printed as they arrive.
//
// Usage:
//
//	motorlink-ui [flags]
//
// Flags:
//
//	-network string       Worker network: unix or tcp (default "unix")
//	-addr string          Worker socket path or host:port (default "/tmp/motorlink-worker.sock")
//	-discover             Find the worker via mDNS instead of -addr
//	-interface string     Network interface for mDNS (default: all)
//	-discover-timeout dur How long to browse for a worker (default 5s)
//	-attempts int         Dial attempts before giving up, 0 = forever (default 20)
//	-timeout dur          Timeout of each shell command (default 5s)
//	-history string       Command history file
//	-log-level string     Log level: debug, info, warn, error (default "warn")
//	-protocol-log string  File to capture protocol events (CBOR)
//
// Examples:
//
//	# Local worker on the default socket
//	motorlink-ui
//
//	# First worker found on the LAN
//	motorlink-ui -discover
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/motorlink/motorlink-go/cmd/motorlink-ui/interactive"
	"github.com/motorlink/motorlink-go/pkg/connection"
	"github.com/motorlink/motorlink-go/pkg/discovery"
	"github.com/motorlink/motorlink-go/pkg/ipc"
	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/service"
	"github.com/motorlink/motorlink-go/pkg/transport"
)

// Config holds the UI configuration.
type Config struct {
	Network         string
	Addr            string
	Discover        bool
	Interface       string
	DiscoverTimeout time.Duration
	Attempts        int
	Timeout         time.Duration
	History         string
	LogLevel        string
	ProtocolLog     string
}

var config Config

func init() {
	flag.StringVar(&config.Network, "network", transport.NetworkUnix, "Worker network: unix or tcp")
	flag.StringVar(&config.Addr, "addr", "/tmp/motorlink-worker.sock", "Worker socket path or host:port")
	flag.BoolVar(&config.Discover, "discover", false, "Find the worker via mDNS instead of -addr")
	flag.StringVar(&config.Interface, "interface", "", "Network interface for mDNS (default: all)")
	flag.DurationVar(&config.DiscoverTimeout, "discover-timeout", 5*time.Second, "How long to browse for a worker")
	flag.IntVar(&config.Attempts, "attempts", 20, "Dial attempts before giving up, 0 = forever")
	flag.DurationVar(&config.Timeout, "timeout", interactive.DefaultTimeout, "Timeout of each shell command")
	flag.StringVar(&config.History, "history", "", "Command history file")
	flag.StringVar(&config.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "File to capture protocol events (CBOR)")
}

func main() {
	flag.Parse()

	if err := validateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func validateConfig() error {
	switch config.Network {
	case transport.NetworkUnix, transport.NetworkTCP:
	default:
		return fmt.Errorf("unknown network: %s", config.Network)
	}
	if config.Attempts < 0 {
		return fmt.Errorf("attempts must not be negative, got %d", config.Attempts)
	}
	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", config.Timeout)
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(config.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

func run() error {
	shell, err := interactive.New(interactive.Config{
		Timeout:     config.Timeout,
		HistoryFile: config.History,
	})
	if err != nil {
		return err
	}
	defer shell.Close()

	var level slog.Level
	_ = level.UnmarshalText([]byte(config.LogLevel))
	logger := slog.New(slog.NewTextHandler(shell.Stdout(), &slog.HandlerOptions{Level: level}))

	var protocolLogger log.Logger
	if config.ProtocolLog != "" {
		fl, err := log.NewFileLogger(config.ProtocolLog)
		if err != nil {
			return fmt.Errorf("open protocol log: %w", err)
		}
		defer fl.Close()
		protocolLogger = fl
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	network, addr, err := resolveWorker(ctx, logger)
	if err != nil {
		return err
	}

	dialer := &connection.Dialer{
		Network:     network,
		Addr:        addr,
		MaxAttempts: config.Attempts,
		Logger:      logger,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			if attempt == 1 {
				fmt.Fprintf(shell.Stdout(), "Waiting for worker at %s...\n", addr)
			}
		},
	}
	conn, err := dialer.DialContext(ctx)
	if err != nil {
		return err
	}

	var remote *service.Remote
	endpoint := ipc.NewEndpoint(conn, ipc.EndpointConfig{
		Role:           log.RoleUI,
		Logger:         logger,
		ProtocolLogger: protocolLogger,
		OnNotification: func(event string, args ipc.Args) {
			remote.HandleNotification(event, args)
		},
	})
	remote = service.NewRemote(endpoint, logger)
	shell.Bind(remote)
	fmt.Fprintf(shell.Stdout(), "Connected to worker at %s\n", addr)

	linkErr := make(chan error, 1)
	go func() {
		err := endpoint.Serve(ctx)
		if ctx.Err() == nil {
			fmt.Fprintln(shell.Stdout(), "Worker link closed")
			linkErr <- errors.Join(errors.New("worker link closed"), err)
			_ = shell.Close()
		}
	}()

	shell.Run(ctx, cancel)
	_ = endpoint.Close()
	endpoint.Wait()

	select {
	case err := <-linkErr:
		return err
	default:
		return nil
	}
}

// resolveWorker returns the worker address, browsing for it when
// -discover is set.
func resolveWorker(ctx context.Context, logger *slog.Logger) (string, string, error) {
	if !config.Discover {
		return config.Network, config.Addr, nil
	}

	ctx, cancel := context.WithTimeout(ctx, config.DiscoverTimeout)
	defer cancel()

	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{Interface: config.Interface})
	ws, err := discovery.FindWorker(ctx, browser)
	if err != nil {
		return "", "", fmt.Errorf("discover worker: %w", err)
	}
	logger.Info("found worker", "instance", ws.InstanceName, "addr", ws.Addr(), "firmware", ws.Firmware, "nodes", ws.Nodes)
	return transport.NetworkTCP, ws.Addr(), nil
}
