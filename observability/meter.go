package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/genaikit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	Environment    string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs a global meter provider exporting over OTLP HTTP.
// The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// ClientMetrics holds the instruments recorded by an HTTP executor.
type ClientMetrics struct {
	requests      metric.Int64Counter
	duration      metric.Float64Histogram
	inFlight      metric.Int64UpDownCounter
	rateLimitWait metric.Float64Histogram
	errors        metric.Int64Counter
}

// NewClientMetrics creates the executor instruments on the given meter.
func NewClientMetrics(meter metric.Meter) (*ClientMetrics, error) {
	requests, err := meter.Int64Counter("httpclient.requests",
		metric.WithDescription("Completed calls by client, method and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating httpclient.requests counter: %w", err)
	}

	duration, err := meter.Float64Histogram("httpclient.duration",
		metric.WithDescription("Call duration from dispatch to result"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating httpclient.duration histogram: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter("httpclient.in_flight",
		metric.WithDescription("Calls dispatched and not yet resolved"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating httpclient.in_flight counter: %w", err)
	}

	rateLimitWait, err := meter.Float64Histogram("httpclient.rate_limit.wait",
		metric.WithDescription("Time spent waiting for rate-limit admission"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating httpclient.rate_limit.wait histogram: %w", err)
	}

	errorsTotal, err := meter.Int64Counter("httpclient.errors",
		metric.WithDescription("Failed calls by error kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating httpclient.errors counter: %w", err)
	}

	return &ClientMetrics{
		requests:      requests,
		duration:      duration,
		inFlight:      inFlight,
		rateLimitWait: rateLimitWait,
		errors:        errorsTotal,
	}, nil
}

// RecordDispatch marks a call as in flight.
func (m *ClientMetrics) RecordDispatch(ctx context.Context, client string) {
	if m == nil {
		return
	}
	m.inFlight.Add(ctx, 1, metric.WithAttributes(attribute.String("client", client)))
}

// RecordResult records a resolved call. outcome is "ok" or an error kind.
func (m *ClientMetrics) RecordResult(ctx context.Context, client, method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Add(ctx, -1, metric.WithAttributes(attribute.String("client", client)))
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("method", method),
	))
}

// RecordRateLimitWait records how long a call waited for admission.
func (m *ClientMetrics) RecordRateLimitWait(ctx context.Context, client string, wait time.Duration) {
	if m == nil {
		return
	}
	m.rateLimitWait.Record(ctx, wait.Seconds(), metric.WithAttributes(attribute.String("client", client)))
}

// RecordError counts a failed call by kind.
func (m *ClientMetrics) RecordError(ctx context.Context, client, kind string) {
	if m == nil {
		return
	}
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("kind", kind),
	))
}
