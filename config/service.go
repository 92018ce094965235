package config

import (
	"fmt"

	gkerrors "github.com/kbukum/genaikit/errors"
	"github.com/kbukum/genaikit/logger"
)

var validEnvironments = []string{"development", "staging", "production"}

// ServiceConfig holds the fields every binary built on this module needs.
// Embed it with mapstructure squash:
//
//	type CLIConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Client genai.Config `yaml:"client" mapstructure:"client"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values to the base configuration.
// Embedding structs should call it first from their own ApplyDefaults.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base configuration fields.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return gkerrors.MissingConfig("name")
	}
	found := false
	for _, env := range validEnvironments {
		if c.Environment == env {
			found = true
			break
		}
	}
	if !found {
		return gkerrors.InvalidConfig("environment",
			fmt.Sprintf("must be one of %v (got: %s)", validEnvironments, c.Environment))
	}
	if err := c.Logging.Validate(); err != nil {
		return gkerrors.InvalidConfig("logging", err.Error()).WithCause(err)
	}
	return nil
}
