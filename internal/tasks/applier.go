package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/lovesync/internal/models"
	"github.com/desertthunder/lovesync/internal/services"
	"github.com/desertthunder/lovesync/internal/shared"
)

// Mutation is the remote action taken for one song.
type Mutation int

const (
	Love Mutation = iota
	Unlove
)

func (m Mutation) String() string {
	if m == Unlove {
		return "unlove"
	}
	return "love"
}

// ApplyResult counts the mutations issued by [Applier.Apply].
type ApplyResult struct {
	Loved    int // Songs loved remotely
	Unloved  int // Songs unloved remotely
	Attempts int // Remote calls issued, retries included
}

// Total is the number of songs that were mutated.
func (r ApplyResult) Total() int {
	return r.Loved + r.Unloved
}

// ApplierOpts configures an [Applier]. Zero values fall back to defaults.
type ApplierOpts struct {
	Retrier     *shared.Retrier // Retry policy, indefinite by default
	Limiter     *rate.Limiter   // Shared pacing between remote calls
	CallTimeout time.Duration   // Per-call timeout, zero disables it
	Logger      *log.Logger
}

// Applier converges the remote loved list by issuing one mutation per delta entry.
type Applier struct {
	service services.LovedService
	retrier *shared.Retrier
	limiter *rate.Limiter
	timeout time.Duration
	logger  *log.Logger
}

// NewLimiter paces calls at most once per delay. A non-positive delay disables pacing.
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// NewApplier creates an [Applier] for service.
func NewApplier(service services.LovedService, opts ApplierOpts) *Applier {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Retrier == nil {
		opts.Retrier = shared.NewRetrier(time.Second, opts.Logger)
	}
	if opts.Limiter == nil {
		opts.Limiter = NewLimiter(0)
	}

	return &Applier{
		service: service,
		retrier: opts.Retrier,
		limiter: opts.Limiter,
		timeout: opts.CallTimeout,
		logger:  opts.Logger,
	}
}

// Apply unloves every extra song, then loves every missing song.
//
// Each call is retried until it succeeds. A fatal error stops the run and is returned with the
// counts reached so far.
func (a *Applier) Apply(ctx context.Context, delta models.Delta, progress chan<- ProgressUpdate) (*ApplyResult, error) {
	if a.service == nil {
		return nil, fmt.Errorf("%w: loved service not initialized", shared.ErrServiceUnavailable)
	}

	result := &ApplyResult{}

	for i, song := range delta.Extra {
		sendProgress(progress, mutationUpdate(RemoveExtra, i+1, len(delta.Extra), song))
		if err := a.mutate(ctx, Unlove, song, result); err != nil {
			return result, err
		}
		result.Unloved++
	}

	for i, song := range delta.Missing {
		sendProgress(progress, mutationUpdate(AddMissing, i+1, len(delta.Missing), song))
		if err := a.mutate(ctx, Love, song, result); err != nil {
			return result, err
		}
		result.Loved++
	}

	return result, nil
}

func (a *Applier) mutate(ctx context.Context, action Mutation, song models.KeyedSong, result *ApplyResult) error {
	op := fmt.Sprintf("%s %s - %s", action, song.Artist, song.Title)

	err := a.retrier.Do(ctx, op, func(ctx context.Context) error {
		a.logger.Info(attemptMessage(action), "action", action, "artist", song.Artist, "title", song.Title, "key", song.Key)

		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		result.Attempts++

		callCtx, cancel := withCallTimeout(ctx, a.timeout)
		defer cancel()

		if action == Unlove {
			return a.service.Unlove(callCtx, song.Artist, song.Title)
		}
		return a.service.Love(callCtx, song.Artist, song.Title)
	})
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}

	a.logger.Info(successMessage(action), "artist", song.Artist, "title", song.Title)
	return nil
}

func attemptMessage(action Mutation) string {
	if action == Unlove {
		return "Unloving track"
	}
	return "Loving track"
}

func successMessage(action Mutation) string {
	if action == Unlove {
		return "Unloved track"
	}
	return "Loved track"
}

// withCallTimeout bounds a single remote call. A zero timeout only derives a cancelable context.
func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
