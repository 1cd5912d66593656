package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mstreet3/script-relayer/config"
	"github.com/mstreet3/script-relayer/mailbox"
	"github.com/mstreet3/script-relayer/server"
)

const shutdownTimeout = 5 * time.Second

type Application struct {
	cfg     *config.Config
	logger  *slog.Logger
	mailbox *mailbox.ScriptMailbox
	server  *http.Server
	addr    net.Addr
}

func NewApplication(cfg *config.Config, logger *slog.Logger) *Application {
	mb := mailbox.NewScriptMailbox()
	return &Application{
		cfg:     cfg,
		logger:  logger,
		mailbox: mb,
		server: &http.Server{
			Handler:           server.NewServer(mb, logger).Handler(),
			IdleTimeout:       cfg.KeepAlive,
			ReadHeaderTimeout: cfg.Header,
		},
	}
}

// Start binds the configured port and serves until ctx is cancelled. The
// returned channel closes once the server has shut down.
func (app *Application) Start(ctx context.Context) (<-chan struct{}, error) {
	ln, err := net.Listen("tcp", app.cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", app.cfg.Addr(), err)
	}
	app.addr = ln.Addr()

	var (
		stopped = make(chan struct{})
		serving = make(chan struct{})
	)

	go func() {
		defer close(serving)
		app.logger.Info("server_listening", "addr", app.addr.String())
		if err := app.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("serve_failed", "error", err)
		}
	}()

	// handle graceful shutdown
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
		case <-serving:
			return
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("shutdown_failed", "error", err)
		}
		<-serving
		app.logger.Info("server_stopped", "pending", app.mailbox.Len())
	}()

	return stopped, nil
}

// Addr is the bound listen address; nil before Start.
func (app *Application) Addr() net.Addr {
	return app.addr
}
