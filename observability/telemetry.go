package observability

import (
	"context"
	"errors"
)

// Config enables tracing and metrics export. Both are off by default.
type Config struct {
	Tracing bool         `yaml:"tracing" mapstructure:"tracing"`
	Metrics bool         `yaml:"metrics" mapstructure:"metrics"`
	Tracer  TracerConfig `yaml:"tracer" mapstructure:"tracer"`
	Meter   MeterConfig  `yaml:"meter" mapstructure:"meter"`
}

// ShutdownFunc flushes and stops the providers installed by Setup.
type ShutdownFunc func(ctx context.Context) error

// Setup installs the providers enabled in cfg. The returned shutdown is
// always non-nil.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.Tracing {
		tp, err := InitTracer(ctx, cfg.Tracer)
		if err != nil {
			return shutdown, err
		}
		shutdowns = append(shutdowns, tp.Shutdown)
	}
	if cfg.Metrics {
		mp, err := InitMeter(ctx, cfg.Meter)
		if err != nil {
			return shutdown, err
		}
		shutdowns = append(shutdowns, mp.Shutdown)
	}
	return shutdown, nil
}
