package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates a configuration value that can never work.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeMissingConfig indicates a required configuration value is absent.
	ErrCodeMissingConfig ErrorCode = "MISSING_CONFIG"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected local failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeEncoding indicates a payload could not be encoded or decoded.
	ErrCodeEncoding ErrorCode = "ENCODING_ERROR"
)

// None of the local codes are retryable: the caller has to change something.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeInvalidConfig: false,
	ErrCodeMissingConfig: false,
	ErrCodeInvalidInput:  false,
	ErrCodeMissingField:  false,
	ErrCodeInternal:      false,
	ErrCodeEncoding:      false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
