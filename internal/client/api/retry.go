package api

import (
	"context"
	"errors"
	"time"
)

// backoffUnit is the linear backoff step between attempts: the wait
// before retry n is n * backoffUnit.
const backoffUnit = 500 * time.Millisecond

// DefaultMaxRetries is the number of additional attempts after the
// first failure, i.e. three attempts in total.
const DefaultMaxRetries = 2

// WithRetry invokes op, retrying transient failures up to maxRetries
// additional times with linear backoff. An *APIError is an
// application-level rejection and is returned immediately: retrying a
// rejected request is never correct. The last failure is returned once
// attempts are exhausted.
func WithRetry[T any](ctx context.Context, maxRetries int, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(time.Duration(attempt) * backoffUnit):
			}
		}

		v, err := op()
		if err == nil {
			return v, nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}
