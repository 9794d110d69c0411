// Package observability wires OpenTelemetry tracing and metrics for
// taskflow.
//
// Init installs global tracer and meter providers exporting over OTLP/HTTP
// when telemetry is enabled; otherwise the no-op globals stay in place and
// StartSpan/Metrics calls cost nothing.
//
//	shutdown, err := observability.Init(ctx, cfg.Telemetry)
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("taskflow"))
//	metrics.RecordTask(ctx, "weather.lookup", "completed", d)
package observability
