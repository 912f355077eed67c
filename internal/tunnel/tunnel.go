// Package tunnel exposes the local quiz server on a public URL.
package tunnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"
)

// Tunnel is a public listener. Connections accepted from it come from the
// internet.
type Tunnel interface {
	net.Listener
	URL() string
}

// Opener creates tunnels.
type Opener interface {
	Open(ctx context.Context) (Tunnel, error)
}

// ErrNoAuthtoken is returned when an ngrok tunnel is requested without credentials.
var ErrNoAuthtoken = errors.New("ngrok authtoken is required")

// Ngrok opens HTTPS endpoints through the ngrok agent SDK.
type Ngrok struct {
	Authtoken string
}

func (n Ngrok) Open(ctx context.Context) (Tunnel, error) {
	if n.Authtoken == "" {
		return nil, ErrNoAuthtoken
	}
	tun, err := ngrok.Listen(ctx,
		config.HTTPEndpoint(),
		ngrok.WithAuthtoken(n.Authtoken),
		ngrok.WithDisconnectHandler(func(_ context.Context, _ ngrok.Session, err error) {
			if err != nil {
				slog.Warn("ngrok session disconnected", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("open ngrok tunnel: %w", err)
	}
	slog.Debug("ngrok tunnel established", "url", tun.URL(), "id", tun.ID())
	return &ngrokTunnel{Tunnel: tun}, nil
}

// ngrokTunnel also tears down the agent session on Close.
type ngrokTunnel struct {
	ngrok.Tunnel
}

func (t *ngrokTunnel) Close() error {
	err := t.Tunnel.Close()
	if serr := t.Tunnel.Session().Close(); serr != nil && err == nil {
		err = serr
	}
	return err
}
