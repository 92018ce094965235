// Package observability provides OpenTelemetry tracing and metrics for
// the HTTP executor and the resource clients built on it.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("genai"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest)
//	defer observability.EndSpan(span, err)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("genai"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewClientMetrics(observability.Meter("genai"))
//
// Without Init calls the global no-op providers are used, so spans and
// instruments cost nothing.
package observability
