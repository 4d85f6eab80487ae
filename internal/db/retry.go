package db

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"
)

const maxAttempts = 3

// WithRetry runs op, retrying a narrow class of transient infrastructure
// errors (timeouts, refused or reset connections) with linearly increasing
// backoff. Non-transient errors propagate immediately. Intended for read
// paths; mutations rely on their transaction instead.
func WithRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op()
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return err
}

// IsTransient reports whether err looks like a recoverable infrastructure
// failure rather than a query or constraint error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	for _, needle := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"broken pipe",
		"i/o timeout",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
