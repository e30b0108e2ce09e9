package bootstrap

import (
	"time"

	"github.com/kbukum/iotmarket/datasource"
	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/observability"
	"github.com/kbukum/iotmarket/resolve"
)

// Option configures a boot run.
type Option func(*options)

type options struct {
	env             resolve.Source
	host            *host.Host
	connectors      *datasource.Registry
	logger          *logger.Logger
	metrics         *observability.Metrics
	report          *Report
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.env == nil {
		o.env = resolve.Env()
	}
	if o.logger == nil {
		o.logger = logger.GetGlobalLogger()
	}
	return o
}

// WithEnv replaces the process environment as the source of the
// npm_config_*, OPENSHIFT_*, VCAP_* and HOST/PORT variables.
func WithEnv(env resolve.Source) Option {
	return func(o *options) { o.env = env }
}

// WithHost boots into an existing host, so settings already stored on it
// act as fallbacks. The host must not have been booted.
func WithHost(h *host.Host) Option {
	return func(o *options) { o.host = h }
}

// WithConnectors sets the connector registry for a host created by Boot.
func WithConnectors(r *datasource.Registry) Option {
	return func(o *options) { o.connectors = r }
}

// WithLogger sets the logger for the boot run and the host it creates.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records boot and REST request metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithReport fills r with what the boot run decided.
func WithReport(r *Report) Option {
	return func(o *options) { o.report = r }
}

// WithGracefulTimeout bounds App shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *options) { o.gracefulTimeout = &d }
}
