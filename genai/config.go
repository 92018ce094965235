package genai

import (
	"os"
	"time"

	"github.com/kbukum/genaikit/resilience"
	"github.com/kbukum/genaikit/validation"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
	DefaultModel      = "gemini-2.0-flash"

	apiKeyHeader = "x-goog-api-key"
)

// Environment variables consulted when APIKey is empty, in order.
var apiKeyEnvVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// Config configures a Client.
type Config struct {
	// Name identifies the client in logs, spans and metrics.
	Name string `yaml:"name" mapstructure:"name"`

	// APIKey authenticates every request.
	APIKey string `yaml:"api_key" mapstructure:"api_key" validate:"required"`

	// BaseURL is the API root.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// APIVersion is the path prefix, e.g. "v1beta".
	APIVersion string `yaml:"api_version" mapstructure:"api_version" validate:"required"`

	// DefaultModel is used when a call names no model.
	DefaultModel string `yaml:"default_model" mapstructure:"default_model"`

	ConnectTimeout  time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
	ResponseTimeout time.Duration `yaml:"response_timeout" mapstructure:"response_timeout"`

	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// RateLimit bounds requests per window for this client. Nil selects the
	// executor default.
	RateLimit *resilience.RateLimiterConfig `yaml:"rate_limit" mapstructure:"rate_limit"`

	// Retry enables caller-side retries of transient failures. Nil disables.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "genai"
	}
	if c.APIKey == "" {
		for _, env := range apiKeyEnvVars {
			if v := os.Getenv(env); v != "" {
				c.APIKey = v
				break
			}
		}
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModel
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
