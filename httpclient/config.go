package httpclient

import (
	"time"

	gkerrors "github.com/kbukum/genaikit/errors"
	"github.com/kbukum/genaikit/resilience"
)

const (
	defaultConnectTimeout  = 10 * time.Second
	defaultResponseTimeout = 60 * time.Second
	defaultName            = "httpclient"
)

// Config configures an Executor.
type Config struct {
	// Name identifies the executor in logs, spans and metrics.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL resolves relative request URLs.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// ConnectTimeout bounds dialing and the TLS handshake. Defaults to 10s.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// ResponseTimeout bounds the wait for a reply, measured after rate-limit
	// admission. Defaults to 60s.
	ResponseTimeout time.Duration `yaml:"response_timeout" mapstructure:"response_timeout"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// UserAgent is sent unless a request sets its own.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Auth is applied to every request.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// RateLimiter configures the sliding-window limiter shared by all calls.
	// Nil selects DefaultRateLimiterConfig.
	RateLimiter *resilience.RateLimiterConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = defaultResponseTimeout
	}
	if c.RateLimiter == nil {
		c.RateLimiter = DefaultRateLimiterConfig(c.Name)
	} else if c.RateLimiter.Name == "" {
		rl := *c.RateLimiter
		rl.Name = c.Name
		c.RateLimiter = &rl
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.ConnectTimeout <= 0 {
		return gkerrors.InvalidConfig("connect_timeout", "must be positive")
	}
	if c.ResponseTimeout <= 0 {
		return gkerrors.InvalidConfig("response_timeout", "must be positive")
	}
	if c.RateLimiter != nil {
		if err := c.RateLimiter.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultRateLimiterConfig returns a default rate limiter config.
func DefaultRateLimiterConfig(name string) *resilience.RateLimiterConfig {
	cfg := resilience.DefaultRateLimiterConfig(name)
	return &cfg
}

// DefaultRetryConfig returns a retry config for callers that want to retry
// executor errors. The executor itself never retries.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsTransient
	cfg.RetryAfter = RetryAfter
	return &cfg
}
