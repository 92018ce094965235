package main

import (
	"github.com/kbukum/genaikit/config"
	gkerrors "github.com/kbukum/genaikit/errors"
	"github.com/kbukum/genaikit/genai"
	"github.com/kbukum/genaikit/observability"
	"github.com/kbukum/genaikit/version"
)

const serviceName = "genai"

// appConfig is the file and environment configuration of the CLI.
type appConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Client    genai.Config         `yaml:"client" mapstructure:"client"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

func (c *appConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Client.ApplyDefaults()

	if c.Telemetry.Tracing && c.Telemetry.Tracer.Endpoint == "" {
		c.Telemetry.Tracer = observability.DefaultTracerConfig(c.Name)
	}
	if c.Telemetry.Metrics && c.Telemetry.Meter.Endpoint == "" {
		c.Telemetry.Meter = observability.DefaultMeterConfig(c.Name)
	}
	for _, name := range []*string{&c.Telemetry.Tracer.ServiceName, &c.Telemetry.Meter.ServiceName} {
		if *name == "" {
			*name = c.Name
		}
	}
	for _, v := range []*string{&c.Telemetry.Tracer.ServiceVersion, &c.Telemetry.Meter.ServiceVersion} {
		if *v == "" || *v == "dev" {
			*v = version.Short()
		}
	}
	c.Telemetry.Tracer.Environment = c.Environment
	c.Telemetry.Meter.Environment = c.Environment
}

func (c *appConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Client.Validate(); err != nil {
		return gkerrors.InvalidConfig("client", err.Error()).WithCause(err)
	}
	return nil
}
