// Package observability provides OpenTelemetry tracing and metrics for
// process execution and worker traffic.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, op := observability.StartOperation(ctx, observability.SpanProcessSpawn)
//	defer op.End(err)
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("platformctl"))
//	metrics.RecordSpawn(ctx, "cat", "")
//
// A nil *Metrics records nothing. The Telemetry component bundles both
// providers behind the component lifecycle.
package observability
