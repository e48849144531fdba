package store

import (
	"context"
	"errors"
	"time"
)

// Connection retry defaults for [Open].
const (
	DefaultConnectAttempts = 3
	DefaultConnectDelay    = 500 * time.Millisecond
)

// unreachableError marks a failure to reach a server. Only these are retried;
// a malformed URL fails on the first attempt.
type unreachableError struct{ err error }

func (e *unreachableError) Error() string { return "store unreachable: " + e.err.Error() }
func (e *unreachableError) Unwrap() error { return e.err }

func unreachable(err error) error { return &unreachableError{err: err} }

// retry calls fn up to attempts times, doubling delay after each
// unreachableError. Other errors and context cancellation end it early.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := range max(attempts, 1) {
		if err = fn(); err == nil || !errors.As(err, new(*unreachableError)) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return err
}
