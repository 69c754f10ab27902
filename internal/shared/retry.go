package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Classifier reports whether err is worth another attempt.
type Classifier func(err error) bool

// Sleep is the default [Sleeper].
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetryable treats every error as retryable except configuration and credential errors.
//
// This is the default [Classifier] for remote reads and mutations.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	for _, fatal := range []error{ErrInvalidCredentials, ErrMissingCredentials, ErrInvalidConfig, ErrMissingConfig, ErrNotAuthenticated} {
		if errors.Is(err, fatal) {
			return false
		}
	}
	return true
}

// IsTransient only retries errors wrapping [ErrTransient].
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Retrier runs an operation until it succeeds, sleeping Delay after every retryable failure.
//
// MaxAttempts of zero retries forever, which suits an unattended batch job. Fatal errors (as judged
// by Classify) and context cancellation are returned immediately.
type Retrier struct {
	Delay       time.Duration
	MaxAttempts int
	Classify    Classifier
	Sleep       Sleeper
	Logger      *log.Logger
}

// NewRetrier creates a [Retrier] with the default classifier and sleeper.
func NewRetrier(delay time.Duration, logger *log.Logger) *Retrier {
	if logger == nil {
		logger = NewLogger(nil)
	}
	return &Retrier{
		Delay:    delay,
		Classify: IsRetryable,
		Sleep:    Sleep,
		Logger:   logger,
	}
}

// WithClassifier returns a copy of r using classify.
func (r *Retrier) WithClassifier(classify Classifier) *Retrier {
	c := *r
	c.Classify = classify
	return &c
}

// Do calls fn until it returns nil. op names the operation in warnings.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := Retry(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Retry is the value-returning form of [Retrier.Do].
func Retry[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	classify := r.Classify
	if classify == nil {
		classify = IsRetryable
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}

		if !classify(err) {
			return zero, err
		}

		if r.MaxAttempts > 0 && attempt >= r.MaxAttempts {
			return zero, fmt.Errorf("%s: giving up after %d attempts: %w", op, attempt, err)
		}

		if r.Logger != nil {
			r.Logger.Warn(op+" failed, retrying", "attempt", attempt, "delay", r.Delay, "error", err)
		}

		if err := sleep(ctx, r.Delay); err != nil {
			return zero, err
		}
	}
}
