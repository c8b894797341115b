package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/discovery"
	"github.com/motorlink/motorlink-go/pkg/ipc"
	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/resource"
	"github.com/motorlink/motorlink-go/pkg/service"
	"github.com/motorlink/motorlink-go/pkg/transport"
)

// shutdownTimeout bounds the final disconnect when the UI link closes.
const shutdownTimeout = 5 * time.Second

// Config configures Run.
type Config struct {
	// Service configures the device session.
	Service service.Config

	// Advertiser announces a TCP listener on the network (optional).
	Advertiser discovery.Advertiser

	// Instance is the advertised instance name.
	Instance string

	// Firmware and Nodes are advertised as TXT records.
	Firmware string
	Nodes    []resource.DeviceID

	// Logger receives operational messages (optional).
	Logger *slog.Logger

	// ProtocolLogger captures every envelope (optional).
	ProtocolLogger log.Logger

	// OnService is called once the service exists, before the first call is
	// served (optional).
	OnService func(*service.Service)
}

// Run waits for one UI link on ln, serves a Service over it and returns
// when the link closes or ctx ends. The current device is disconnected on
// return.
func Run(ctx context.Context, ln *transport.Listener, ctrl device.Controller, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if cfg.Advertiser != nil {
		if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
			info := &discovery.WorkerInfo{
				Instance: cfg.Instance,
				Port:     uint16(tcp.Port),
				Firmware: cfg.Firmware,
				Nodes:    cfg.Nodes,
			}
			if err := cfg.Advertiser.Advertise(ctx, info); err != nil {
				return fmt.Errorf("advertise worker: %w", err)
			}
			defer func() {
				if err := cfg.Advertiser.Stop(); err != nil {
					logger.Warn("stop advertising", "error", err)
				}
			}()
			logger.Info("advertising worker", "instance", info.Instance, "port", info.Port)
		}
	}

	conn, err := accept(ctx, ln)
	if err != nil {
		return err
	}
	logger.Info("UI connected", "remote", conn.RemoteAddr())

	d := ipc.NewDispatcher(logger)
	endpoint := ipc.NewEndpoint(conn, ipc.EndpointConfig{
		Dispatcher:     d,
		Role:           log.RoleWorker,
		Logger:         logger,
		ProtocolLogger: cfg.ProtocolLogger,
	})

	var target ipc.Target
	if err := target.Set(endpoint); err != nil {
		return err
	}

	svcCfg := cfg.Service
	if svcCfg.Logger == nil {
		svcCfg.Logger = logger
	}
	if svcCfg.ProtocolLogger == nil {
		svcCfg.ProtocolLogger = cfg.ProtocolLogger
	}
	svc, err := service.New(ctrl, &target, svcCfg)
	if err != nil {
		_ = endpoint.Close()
		return err
	}
	service.Register(d, svc)
	if cfg.OnService != nil {
		cfg.OnService(svc)
	}

	serveErr := endpoint.Serve(ctx)
	if ctx.Err() != nil {
		serveErr = nil
	}
	endpoint.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svc.Close(shutdownCtx); err != nil {
		logger.Warn("disconnect on shutdown", "error", err)
	}
	logger.Info("UI disconnected")
	return serveErr
}

// accept waits for one link, giving up when ctx ends.
func accept(ctx context.Context, ln *transport.Listener) (*transport.Conn, error) {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, fmt.Errorf("listener closed: %w", err)
		}
		return nil, err
	}
	return conn, nil
}
