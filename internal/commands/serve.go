package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/iotmarket/bootstrap"
	"github.com/kbukum/iotmarket/config"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/observability"
	"github.com/kbukum/iotmarket/version"
)

func newServeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Boot the host and serve the REST API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	logger.Init(&cfg.Logging)
	log := logger.GetGlobalLogger()

	opts := []bootstrap.Option{bootstrap.WithLogger(log)}
	if cfg.Observability.Enabled {
		shutdown, metrics, err := initTelemetry(ctx, cfg)
		if err != nil {
			return err
		}
		defer shutdown()
		opts = append(opts, bootstrap.WithMetrics(metrics))
	}

	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

// initTelemetry installs the OTLP tracer and meter providers. The returned
// func flushes both.
func initTelemetry(ctx context.Context, cfg *config.AppConfig) (func(), *observability.Metrics, error) {
	service, ver := cfg.Logging.ServiceName, version.Or(cfg.Version)

	tp, err := observability.InitTracer(ctx, cfg.Observability.TracerConfig(service, ver, cfg.Environment))
	if err != nil {
		return nil, nil, fmt.Errorf("init tracer: %w", err)
	}
	mp, err := observability.InitMeter(ctx, cfg.Observability.MeterConfig(service, ver, cfg.Environment))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, fmt.Errorf("init meter: %w", err)
	}
	shutdown := func() {
		flushCtx := context.WithoutCancel(ctx)
		if err := mp.Shutdown(flushCtx); err != nil {
			logger.Warn("Meter shutdown", logger.Fields(logger.FieldError, err.Error()))
		}
		if err := tp.Shutdown(flushCtx); err != nil {
			logger.Warn("Tracer shutdown", logger.Fields(logger.FieldError, err.Error()))
		}
	}

	metrics, err := observability.NewMetrics(observability.Meter(ServiceName))
	if err != nil {
		shutdown()
		return nil, nil, err
	}
	return shutdown, metrics, nil
}
