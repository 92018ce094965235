// Package config loads configuration from a YAML file, an optional .env
// file and the environment using Viper.
//
// # Usage
//
//	var cfg CLIConfig
//	if err := config.LoadConfig("genai", &cfg); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// Environment variables override file values. Keys are prefixed with the
// upper-cased service name and use underscores for nesting, so
// client.rate_limit.window is read from GENAI_CLIENT_RATE_LIMIT_WINDOW.
package config
