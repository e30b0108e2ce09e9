package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/iotmarket/component"
	"github.com/kbukum/iotmarket/config"
	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/server"
	"github.com/kbukum/iotmarket/version"
)

// summaryHealthTimeout bounds the datasource pings shown in the startup summary.
const summaryHealthTimeout = 2 * time.Second

// App runs a booted host behind an HTTP server until a shutdown signal.
//
// Example:
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnReady(func(ctx context.Context) error { ... })
//	app.Run(context.Background())
type App struct {
	Name       string
	Version    string
	Cfg        *config.AppConfig
	Host       *host.Host
	Server     *server.Server
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary
	Report     Report

	bootOpts        []Option
	summaryOut      io.Writer
	gracefulTimeout time.Duration

	onReady []Hook
	onStop  []Hook
}

// NewApp applies defaults, validates cfg and initializes the logger. Boot
// options (WithEnv, WithConnectors, WithMetrics...) are passed on to Boot.
func NewApp(cfg *config.AppConfig, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	app := &App{
		Name:            cfg.Name,
		Version:         version.Or(cfg.Version),
		Cfg:             cfg,
		Components:      component.NewRegistry(),
		summaryOut:      os.Stdout,
		gracefulTimeout: 15 * time.Second,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&cfg.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.bootOpts = append(append([]Option{}, opts...), WithLogger(app.Logger), WithReport(&app.Report))
	app.Summary = NewSummary(cfg.Logging.ServiceName, app.Version)
	return app, nil
}

// SetSummaryOutput redirects the startup summary, os.Stdout by default.
func (a *App) SetSummaryOutput(w io.Writer) { a.summaryOut = w }

// Start boots the host, starts the HTTP server and runs the OnReady hooks.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("Starting application", logger.Fields(
		"name", a.Name,
		"version", a.Version,
	))

	h, err := Boot(ctx, a.Cfg, a.bootOpts...)
	if err != nil {
		return fmt.Errorf("boot failed: %w", err)
	}
	a.Host = h

	srv, err := server.New(h, a.Cfg.Server, a.Logger)
	if err != nil {
		_ = h.Close(ctx)
		return err
	}
	srv.RegisterDefaultEndpoints(a.Summary.serviceName)
	a.Server = srv

	if err := a.Components.Register(server.NewComponent(srv)); err != nil {
		_ = h.Close(ctx)
		return err
	}
	if err := a.Components.StartAll(ctx); err != nil {
		_ = h.Close(ctx)
		return fmt.Errorf("failed to start components: %w", err)
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		a.abort(ctx)
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	healthCtx, cancel := context.WithTimeout(ctx, summaryHealthTimeout)
	defer cancel()
	a.Summary.SetStartupDuration(a.Report.Duration)
	a.Summary.Collect(h, a.Report, a.Components)
	a.Summary.Display(a.summaryOut, h.Health(healthCtx))
	return nil
}

// abort stops what Start already started: the HTTP server and the host's
// datasources.
func (a *App) abort(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.gracefulTimeout)
	defer cancel()
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("Server stop after failed start", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := a.Host.Close(ctx); err != nil {
		a.Logger.Error("Datasource close after failed start", logger.Fields(logger.FieldError, err.Error()))
	}
}

// Run starts the application, blocks until SIGINT/SIGTERM or ctx is done,
// then shuts down.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.Shutdown(context.Background())
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (a *App) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", logger.Fields(
			"signal", sig.String(),
		))
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown runs the OnStop hooks, stops the server and closes the host's
// datasources, all within the graceful timeout.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("Shutting down application", logger.Fields(
		"timeout", a.gracefulTimeout.String(),
	))

	ctx, cancel := context.WithTimeout(ctx, a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", logger.Fields(logger.FieldError, err.Error()))
		shutdownErr = err
	}

	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("Server shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		shutdownErr = err
	}

	if a.Host != nil {
		if err := a.Host.Close(ctx); err != nil {
			a.Logger.Error("Datasource close error", logger.Fields(logger.FieldError, err.Error()))
			if shutdownErr == nil {
				shutdownErr = err
			}
		}
	}

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}
