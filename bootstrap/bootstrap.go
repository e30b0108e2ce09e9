package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/iotmarket/config"
	"github.com/kbukum/iotmarket/errors"
	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/observability"
)

// Step names, in execution order.
const (
	StepHost        = "host"
	StepPort        = "port"
	StepRestAPIRoot = "restApiRoot"
	StepDataSources = "datasources"
	StepModels      = "models"
	StepMiddleware  = "middleware"
	StepComponents  = "components"
	StepFinalize    = "finalize"
)

// Setting is one resolved setting and the source that supplied it.
type Setting struct {
	Key    string `json:"key"`
	Value  any    `json:"value"`
	Source string `json:"source"`
}

// Report describes a finished boot run.
type Report struct {
	Settings []Setting     `json:"settings"`
	Steps    []StepResult  `json:"steps"`
	Duration time.Duration `json:"duration"`
}

// StepResult is the timing of one step.
type StepResult struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

type step struct {
	name string
	run  func(ctx context.Context, b *booter) error
}

var steps = []step{
	{StepHost, installHost},
	{StepPort, installPort},
	{StepRestAPIRoot, installRestAPIRoot},
	{StepDataSources, installDataSources},
	{StepModels, installModels},
	{StepMiddleware, installMiddleware},
	{StepComponents, installComponents},
	{StepFinalize, finalize},
}

// booter carries one boot run.
type booter struct {
	cfg    *config.AppConfig
	host   *host.Host
	opts   *options
	log    *logger.Logger
	report *Report
}

// Boot turns cfg into a ready host: settings resolved, datasources attached,
// models registered and the REST surface mounted. A nil cfg boots
// config.Default(). Steps run strictly in order and the first error aborts
// the run; datasources attached so far are closed and no host is returned.
func Boot(ctx context.Context, cfg *config.AppConfig, opts ...Option) (*host.Host, error) {
	o := resolveOptions(opts)
	if cfg == nil {
		cfg = config.Default()
	}

	h := o.host
	if h == nil {
		hostOpts := []host.Option{host.WithLogger(o.logger)}
		if o.connectors != nil {
			hostOpts = append(hostOpts, host.WithConnectors(o.connectors))
		}
		h = host.New(hostOpts...)
	}
	if h.Phase() != host.PhaseCreated {
		return nil, errors.New(errors.ErrCodeAlreadyExists,
			fmt.Sprintf("host is %s and cannot be booted again", h.Phase()), http.StatusConflict)
	}

	report := o.report
	if report == nil {
		report = &Report{}
	}
	*report = Report{}

	b := &booter{
		cfg:    cfg,
		host:   h,
		opts:   o,
		log:    o.logger.WithComponent("bootstrap"),
		report: report,
	}
	return b.run(ctx)
}

func (b *booter) run(ctx context.Context) (*host.Host, error) {
	start := time.Now()
	service := b.cfg.Name

	ctx, span := observability.StartSpan(ctx, observability.SpanBoot)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrServiceName, service)

	b.host.SetPhase(host.PhaseBooting)
	b.host.Set(host.KeyBooting, true)
	b.log.Info("Boot started", logger.Fields(logger.FieldService, service))

	for _, s := range steps {
		if err := b.runStep(ctx, s); err != nil {
			observability.SetSpanError(ctx, err)
			b.fail(ctx, s.name, err, time.Since(start))
			return nil, err
		}
	}

	b.host.Set(host.KeyBooting, false)
	b.host.SetPhase(host.PhaseReady)

	b.report.Duration = time.Since(start)
	b.recordBoot(ctx, "ok")
	b.log.Info("Boot complete", logger.Fields(
		logger.FieldService, service,
		"datasources", len(b.host.DataSources()),
		"models", len(b.host.Models()),
		logger.FieldDuration, b.report.Duration.Milliseconds(),
	))
	return b.host, nil
}

func (b *booter) runStep(ctx context.Context, s step) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanBootStep)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrStep, s.name)

	start := time.Now()
	err := s.run(ctx, b)
	elapsed := time.Since(start)
	observability.SetSpanAttribute(ctx, observability.AttrDurationMs, elapsed.Milliseconds())
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}

	b.report.Steps = append(b.report.Steps, StepResult{Name: s.name, Duration: elapsed})
	b.log.Debug("Step complete", logger.Fields(
		logger.FieldStep, s.name,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	return nil
}

func (b *booter) fail(ctx context.Context, stepName string, err error, elapsed time.Duration) {
	b.log.Error("Boot failed", logger.Fields(
		logger.FieldStep, stepName,
		logger.FieldError, err.Error(),
	))
	if closeErr := b.host.Close(context.WithoutCancel(ctx)); closeErr != nil {
		b.log.Warn("Closing datasources after failed boot", logger.Fields(logger.FieldError, closeErr.Error()))
	}
	b.host.SetPhase(host.PhaseFailed)

	b.report.Duration = elapsed
	b.recordBoot(ctx, "failed")
	if b.opts.metrics != nil {
		code := string(errors.ErrCodeInternal)
		if appErr, ok := errors.AsAppError(err); ok {
			code = string(appErr.Code)
		}
		b.opts.metrics.RecordError(ctx, code, "bootstrap")
	}
}

func (b *booter) recordBoot(ctx context.Context, status string) {
	if b.opts.metrics == nil {
		return
	}
	b.opts.metrics.RecordBoot(ctx, b.cfg.Name, status, b.report.Duration,
		len(b.host.DataSources()), len(b.host.Models()))
}

// commit stores a resolved setting and records where it came from.
func (b *booter) commit(key string, value any, source string) {
	b.host.Set(key, value)
	b.report.Settings = append(b.report.Settings, Setting{Key: key, Value: value, Source: source})
	b.log.Info("Setting resolved", logger.Fields(
		"key", key,
		"value", value,
		logger.FieldSource, source,
	))
}
