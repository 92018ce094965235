package genai

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kbukum/genaikit/httpclient"
)

// APIError is the error envelope returned by the API, decoded from a
// protocol error body. It unwraps to the *httpclient.Error it came from.
type APIError struct {
	// Code is the HTTP status echoed by the server.
	Code int `json:"code"`
	// Message is the server's human-readable description.
	Message string `json:"message"`
	// Status is the canonical gRPC status name, e.g. "INVALID_ARGUMENT".
	Status string `json:"status"`
	// Details carries typed detail objects verbatim.
	Details []map[string]any `json:"details,omitempty"`

	err *httpclient.Error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("genai: %s (HTTP %d): %s", e.Status, e.Code, e.Message)
}

// Unwrap returns the underlying transport error.
func (e *APIError) Unwrap() error {
	return e.err
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var e *APIError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// decodeError upgrades protocol errors that carry the API envelope. Other
// errors are returned unchanged.
func decodeError(err error) error {
	httpErr, ok := httpclient.AsError(err)
	if !ok || httpErr.Kind != httpclient.ErrKindProtocol || httpErr.Body == "" {
		return err
	}

	var env errorEnvelope
	if jsonErr := json.Unmarshal([]byte(httpErr.Body), &env); jsonErr != nil || env.Error == nil {
		return err
	}
	env.Error.err = httpErr
	if env.Error.Code == 0 {
		env.Error.Code = httpErr.StatusCode
	}
	return env.Error
}
