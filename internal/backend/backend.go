package backend

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Translator translates one string. Implementations must be safe for
// concurrent use.
type Translator interface {
	Translate(ctx context.Context, text, sourceLocale, targetLocale string) (string, error)
}

// TranslatorFunc adapts a function to the Translator interface
type TranslatorFunc func(ctx context.Context, text, sourceLocale, targetLocale string) (string, error)

// Translate calls f
func (f TranslatorFunc) Translate(ctx context.Context, text, sourceLocale, targetLocale string) (string, error) {
	return f(ctx, text, sourceLocale, targetLocale)
}

// TransientError is a failure that may succeed when retried. RetryAfter is
// the delay requested by the service, zero when it gave none.
type TransientError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("transient backend error (retry after %v): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("transient backend error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError is a failure that will not go away by retrying
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent backend error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientError
func Transient(err error, retryAfter time.Duration) error {
	return &TransientError{Err: err, RetryAfter: retryAfter}
}

// Permanent wraps err as a PermanentError
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// IsTransient reports whether err is worth retrying. Explicit
// classifications win. Timeouts, network errors and anything else left
// unclassified count as transient; cancellation does not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var perm *PermanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var tr *TransientError
	if errors.As(err, &tr) {
		return true
	}
	return true
}

// RetryAfter returns the server requested delay carried by err, if any
func RetryAfter(err error) time.Duration {
	var tr *TransientError
	if errors.As(err, &tr) {
		return tr.RetryAfter
	}
	return 0
}

// classifyStatus maps an HTTP status code to an error class
func classifyStatus(status int, err error, retryAfter time.Duration) error {
	switch {
	case status == 429:
		return Transient(err, retryAfter)
	case status == 408, status >= 500:
		return Transient(err, 0)
	case status >= 400:
		return Permanent(err)
	default:
		return Transient(err, 0)
	}
}
