// Package observability provides OpenTelemetry tracing and metrics for
// iotmarket.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, cfg.Observability.TracerConfig("iotmarket", version, env))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanBootStep)
//	defer span.End()
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("iotmarket"))
//	metrics.RecordBoot(ctx, "iotmarket", "ok", elapsed, 2, 6)
//
// Without InitTracer/InitMeter the global otel providers are no-ops, so
// spans and instruments are always safe to use.
package observability
