package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/ipc"
	"github.com/motorlink/motorlink-go/pkg/log"
	"github.com/motorlink/motorlink-go/pkg/transport"
)

// ServeController exposes ctrl to every worker that connects to ln until
// ctx ends. Each link gets its own telemetry streams.
func ServeController(ctx context.Context, ln *transport.Listener, ctrl device.Controller, logger *slog.Logger, protocolLogger log.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			serveLink(ctx, conn, ctrl, logger, protocolLogger)
		}()
	}
}

func serveLink(ctx context.Context, conn *transport.Conn, ctrl device.Controller, logger *slog.Logger, protocolLogger log.Logger) {
	d := ipc.NewDispatcher(logger)
	endpoint := ipc.NewEndpoint(conn, ipc.EndpointConfig{
		Dispatcher:     d,
		Role:           log.RoleDaemon,
		Logger:         logger,
		ProtocolLogger: protocolLogger,
	})

	var target ipc.Target
	_ = target.Set(endpoint)
	server := device.Serve(d, ctrl, &target)
	server.SetLogger(logger.With("link", endpoint.ID()))

	logger.Info("worker linked", "link", endpoint.ID(), "remote", conn.RemoteAddr())
	if err := endpoint.Serve(ctx); err != nil && ctx.Err() == nil {
		logger.Warn("worker link failed", "link", endpoint.ID(), "error", err)
	}
	endpoint.Wait()

	if err := server.Close(context.Background()); err != nil {
		logger.Debug("close streams", "link", endpoint.ID(), "error", err)
	}
	logger.Info("worker unlinked", "link", endpoint.ID())
}
