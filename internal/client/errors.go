package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// TransportError wraps a network or provider failure talking to the model.
// It is fatal to the current attempt; callers retry only where their own
// policy says so.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrSchemaViolation marks structured output that failed validation. It is
// recovered locally via fallback extraction before being escalated.
var ErrSchemaViolation = errors.New("structured output failed schema validation")

// IsCancellation reports whether the error stems from context cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsRetryableError reports whether a transport-level retry is worthwhile.
// Typed checks first; string matching only for untyped provider errors.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"429", "500", "502", "503", "504",
		"rate limit",
		"connection refused",
		"connection reset",
		"no such host",
		"timeout",
		"unavailable",
		"resource_exhausted",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
