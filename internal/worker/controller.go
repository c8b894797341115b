package worker

import (
	"context"
	"log/slog"

	"github.com/motorlink/motorlink-go/pkg/connection"
	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/ipc"
	"github.com/motorlink/motorlink-go/pkg/log"
)

// RemoteController is a device.Controller served by a device daemon.
type RemoteController struct {
	*device.Client

	endpoint *ipc.Endpoint
	done     chan struct{}
	err      error
}

// DialController connects to a device daemon. The link is served until ctx
// ends or Close is called; open telemetry streams fail when it drops.
func DialController(ctx context.Context, dialer *connection.Dialer, buffer int, logger *slog.Logger, protocolLogger log.Logger) (*RemoteController, error) {
	conn, err := dialer.DialContext(ctx)
	if err != nil {
		return nil, err
	}

	rc := &RemoteController{done: make(chan struct{})}
	rc.endpoint = ipc.NewEndpoint(conn, ipc.EndpointConfig{
		Role:           log.RoleWorker,
		Logger:         logger,
		ProtocolLogger: protocolLogger,
		OnNotification: func(event string, args ipc.Args) {
			rc.Client.HandleNotification(event, args)
		},
	})
	rc.Client = device.NewClient(rc.endpoint, buffer, logger)

	go func() {
		defer close(rc.done)
		rc.err = rc.endpoint.Serve(ctx)
		rc.Client.CloseStreams(ipc.ErrClosed)
	}()
	return rc, nil
}

// Done is closed when the link to the daemon is gone.
func (rc *RemoteController) Done() <-chan struct{} {
	return rc.done
}

// Err returns the link error once Done is closed.
func (rc *RemoteController) Err() error {
	<-rc.done
	return rc.err
}

// Close drops the link.
func (rc *RemoteController) Close() error {
	err := rc.endpoint.Close()
	<-rc.done
	return err
}

var _ device.Controller = (*RemoteController)(nil)
