package shared

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// recordingSleeper counts requested pauses without waiting.
type recordingSleeper struct {
	calls []time.Duration
	err   error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return s.err
}

func TestRetrier(t *testing.T) {
	ctx := context.Background()

	t.Run("Succeeds First Time", func(t *testing.T) {
		sleeper := &recordingSleeper{}
		r := NewRetrier(time.Second, NewLogger(&bytes.Buffer{}))
		r.Sleep = sleeper.Sleep

		calls := 0
		err := r.Do(ctx, "love", func(ctx context.Context) error {
			calls++
			return nil
		})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
		if len(sleeper.calls) != 0 {
			t.Errorf("expected no sleeps, got %d", len(sleeper.calls))
		}
	})

	t.Run("Fails Twice Then Succeeds", func(t *testing.T) {
		var logs bytes.Buffer
		sleeper := &recordingSleeper{}
		r := NewRetrier(2*time.Second, NewLogger(&logs))
		r.Sleep = sleeper.Sleep

		calls := 0
		got, err := Retry(ctx, r, "fetch loved tracks", func(ctx context.Context) (string, error) {
			calls++
			if calls <= 2 {
				return "", fmt.Errorf("%w: status 503", ErrTransient)
			}
			return "ok", nil
		})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "ok" {
			t.Errorf("expected ok, got %q", got)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
		if len(sleeper.calls) != 2 {
			t.Fatalf("expected 2 delay intervals, got %d", len(sleeper.calls))
		}
		for _, d := range sleeper.calls {
			if d != 2*time.Second {
				t.Errorf("expected 2s delay, got %v", d)
			}
		}
		if n := strings.Count(logs.String(), "fetch loved tracks failed"); n != 2 {
			t.Errorf("expected 2 warnings, got %d in %q", n, logs.String())
		}
	})

	t.Run("Fatal Error Propagates Immediately", func(t *testing.T) {
		sleeper := &recordingSleeper{}
		r := NewRetrier(time.Second, NewLogger(&bytes.Buffer{}))
		r.Sleep = sleeper.Sleep

		calls := 0
		err := r.Do(ctx, "love", func(ctx context.Context) error {
			calls++
			return fmt.Errorf("%w: invalid API key", ErrInvalidCredentials)
		})

		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
		if len(sleeper.calls) != 0 {
			t.Errorf("expected no sleeps, got %d", len(sleeper.calls))
		}
	})

	t.Run("MaxAttempts Bounds The Loop", func(t *testing.T) {
		sleeper := &recordingSleeper{}
		r := NewRetrier(time.Second, nil)
		r.Sleep = sleeper.Sleep
		r.MaxAttempts = 3

		calls := 0
		err := r.Do(ctx, "unlove", func(ctx context.Context) error {
			calls++
			return ErrTransient
		})

		if !errors.Is(err, ErrTransient) {
			t.Errorf("expected wrapped ErrTransient, got %v", err)
		}
		if !strings.Contains(err.Error(), "giving up after 3 attempts") {
			t.Errorf("unexpected error %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
		if len(sleeper.calls) != 2 {
			t.Errorf("expected 2 sleeps, got %d", len(sleeper.calls))
		}
	})

	t.Run("Custom Classifier", func(t *testing.T) {
		r := NewRetrier(0, NewLogger(&bytes.Buffer{})).WithClassifier(IsTransient)
		r.Sleep = (&recordingSleeper{}).Sleep

		err := r.Do(ctx, "love", func(ctx context.Context) error {
			return ErrAPIRequest
		})
		if !errors.Is(err, ErrAPIRequest) {
			t.Errorf("expected non-transient error to propagate, got %v", err)
		}
	})

	t.Run("Cancelled During Sleep", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		r := NewRetrier(time.Hour, NewLogger(&bytes.Buffer{}))

		done := make(chan error, 1)
		go func() {
			done <- r.Do(ctx, "love", func(ctx context.Context) error {
				return ErrTransient
			})
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("retrier did not stop after cancellation")
		}
	})
}

func TestIsRetryable(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "transient", err: fmt.Errorf("x: %w", ErrTransient), want: true},
		{name: "api error", err: ErrAPIRequest, want: true},
		{name: "plain error", err: errors.New("boom"), want: true},
		{name: "call deadline", err: context.DeadlineExceeded, want: true},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "invalid credentials", err: fmt.Errorf("x: %w", ErrInvalidCredentials), want: false},
		{name: "missing config", err: ErrMissingConfig, want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("expected zero sleep to return nil, got %v", err)
	}
}
