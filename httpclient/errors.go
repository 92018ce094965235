package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// UnknownStatus is the status code carried by errors raised before any reply.
const UnknownStatus = -1

// ErrClosed is wrapped by errors returned from a closed Executor.
var ErrClosed = errors.New("httpclient: executor closed")

// ErrorKind classifies executor failures.
type ErrorKind int

const (
	// ErrKindInvalidRequest is malformed input caught before any network activity.
	ErrKindInvalidRequest ErrorKind = iota
	// ErrKindTimeout means no reply arrived within the response timeout.
	ErrKindTimeout
	// ErrKindInterrupted means the caller's context ended while waiting.
	ErrKindInterrupted
	// ErrKindExecution is a transport or network fault.
	ErrKindExecution
	// ErrKindProtocol means the remote endpoint replied with status >= 400.
	ErrKindProtocol
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindInvalidRequest:
		return "invalid_request"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindInterrupted:
		return "interrupted"
	case ErrKindExecution:
		return "execution_failure"
	case ErrKindProtocol:
		return "protocol_error"
	default:
		return "unknown"
	}
}

// Error is the single failure type returned by the Executor.
type Error struct {
	// Kind classifies the error.
	Kind ErrorKind
	// Message describes the error.
	Message string
	// StatusCode is the HTTP status code, or UnknownStatus when no reply was received.
	StatusCode int
	// Headers are the reply headers (ProtocolError only).
	Headers map[string]string
	// Body is the reply body (ProtocolError only).
	Body string
	// Retryable indicates whether the same request may succeed if sent again.
	Retryable bool
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != UnknownStatus {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewInvalidRequestError creates an error for input rejected before dispatch.
func NewInvalidRequestError(msg string) *Error {
	return &Error{
		Kind:       ErrKindInvalidRequest,
		Message:    msg,
		StatusCode: UnknownStatus,
	}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(msg string, err error) *Error {
	return &Error{
		Kind:       ErrKindTimeout,
		Message:    msg,
		StatusCode: UnknownStatus,
		Retryable:  true,
		Err:        err,
	}
}

// NewInterruptedError creates an error for a caller context that ended
// while the call was waiting. err should be ctx.Err().
func NewInterruptedError(err error) *Error {
	return &Error{
		Kind:       ErrKindInterrupted,
		Message:    err.Error(),
		StatusCode: UnknownStatus,
		Err:        err,
	}
}

// NewExecutionError creates an error for a transport fault.
func NewExecutionError(err error) *Error {
	return &Error{
		Kind:       ErrKindExecution,
		Message:    err.Error(),
		StatusCode: UnknownStatus,
		Retryable:  true,
		Err:        err,
	}
}

// NewProtocolError creates an error from a reply with status >= 400.
func NewProtocolError(statusCode int, headers map[string]string, body string) *Error {
	return &Error{
		Kind:       ErrKindProtocol,
		Message:    protocolMessage(statusCode, body),
		StatusCode: statusCode,
		Headers:    headers,
		Body:       body,
	}
}

func protocolMessage(statusCode int, body string) string {
	const maxBody = 256
	text := http.StatusText(statusCode)
	if text == "" {
		text = "unexpected status"
	}
	if body == "" {
		return text
	}
	if len(body) > maxBody {
		body = body[:maxBody] + "..."
	}
	return text + ": " + body
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func hasKind(err error, kind ErrorKind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

// IsInvalidRequest checks if an error is an invalid-request error.
func IsInvalidRequest(err error) bool { return hasKind(err, ErrKindInvalidRequest) }

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool { return hasKind(err, ErrKindTimeout) }

// IsInterrupted checks if an error is an interrupted error.
func IsInterrupted(err error) bool { return hasKind(err, ErrKindInterrupted) }

// IsExecutionFailure checks if an error is a transport fault.
func IsExecutionFailure(err error) bool { return hasKind(err, ErrKindExecution) }

// IsProtocolError checks if an error is a status >= 400 reply.
func IsProtocolError(err error) bool { return hasKind(err, ErrKindProtocol) }

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	return ok && e.Retryable
}

// IsTransient reports whether a retry could plausibly succeed. Besides
// retryable kinds it accepts protocol errors for throttling and gateway
// statuses.
func IsTransient(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	if e.Retryable {
		return true
	}
	if e.Kind != ErrKindProtocol {
		return false
	}
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// StatusCode returns the status code carried by err, or UnknownStatus.
func StatusCode(err error) int {
	if e, ok := AsError(err); ok {
		return e.StatusCode
	}
	return UnknownStatus
}

// RetryAfter returns the delay suggested by a protocol error's Retry-After
// header, or 0 when err carries none.
func RetryAfter(err error) time.Duration {
	e, ok := AsError(err)
	if !ok || e.Kind != ErrKindProtocol {
		return 0
	}
	value := strings.TrimSpace(lookupHeader(e.Headers, "Retry-After"))
	if value == "" {
		return 0
	}
	if secs, convErr := strconv.Atoi(value); convErr == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, parseErr := http.ParseTime(value); parseErr == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
