package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrConfiguration is matched by every ConfigurationError.
	ErrConfiguration = errors.New("transport: configuration error")
	// ErrInvalidParams indicates a parameter object the encoder cannot represent.
	ErrInvalidParams = errors.New("transport: invalid params")
)

// ConfigurationError reports a client setup problem, such as a signed call on a
// client built without credentials. It is never retryable.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("transport: configuration: %s", e.Reason)
	}
	return fmt.Sprintf("transport: configuration: %s: %s", e.Op, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// TransportError wraps network, TLS, timeout and cancellation failures.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExchangeError is the exchange rejecting a well-formed request with a
// {code, msg} envelope.
type ExchangeError struct {
	StatusCode int
	Code       int
	Message    string
	// RetryAfter is the Retry-After header sent with 418/429, if any.
	RetryAfter time.Duration
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("transport: exchange error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Exchange codes that signal a transient condition.
const (
	CodeDisconnected       = -1001
	CodeTooManyRequests    = -1003
	CodeTimeout            = -1007
	CodeTimestampOutOfWin  = -1021
	CodeInvalidSymbol      = -1121
	CodeInvalidSignature   = -1022
	CodeUnknownOrderSent   = -2011
	CodeOrderDoesNotExist  = -2013
	CodeInvalidAPIKeyOrIP  = -2015
	CodeInsufficientMargin = -2019
)

// Retryable reports whether resubmitting the request may succeed.
func (e *ExchangeError) Retryable() bool {
	if e.StatusCode == http.StatusTeapot {
		// IP ban; retrying only extends it.
		return false
	}
	switch e.Code {
	case CodeDisconnected, CodeTooManyRequests, CodeTimeout, CodeTimestampOutOfWin:
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// DecodeError means the exchange answered but the payload did not match the
// expected shape. Body holds the raw payload for diagnosis.
type DecodeError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("transport: decode response (status %d): %v: %s", e.StatusCode, e.Err, truncate(e.Body, 512))
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsRetryable classifies err for caller-level retry policies.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConfiguration) || errors.Is(err, ErrInvalidParams) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Retryable()
	}
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return false
	}
	var tErr *TransportError
	return errors.As(err, &tErr)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
