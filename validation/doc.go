// Package validation provides the input checks run before a request leaves
// the process.
//
// It supports struct tag validation (using the validator library) for
// configuration structs, and programmatic validation with error collection
// for request payloads.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    APIKey  string `mapstructure:"api_key" validate:"required"`
//	    BaseURL string `mapstructure:"base_url" validate:"required,url"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	err := validation.New().
//	    Required("model", model).
//	    Custom(len(contents) > 0, "contents", "must not be empty").
//	    Validate()
package validation
