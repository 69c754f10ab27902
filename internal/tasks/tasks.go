package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/lovesync/internal/identity"
	"github.com/desertthunder/lovesync/internal/models"
	"github.com/desertthunder/lovesync/internal/services"
	"github.com/desertthunder/lovesync/internal/shared"
)

// PlanResult is everything computed before the remote list is touched.
type PlanResult struct {
	Local            models.Snapshot          // Keyed local favorites
	Remote           models.Snapshot          // Keyed remote loved list
	Delta            models.Delta             // Mutations needed to converge
	Collisions       map[string][]models.Song // Local keys shared by several songs
	RemoteCollisions map[string][]models.Song // Remote keys shared by several songs
	Policy           identity.Policy          // Policy used to build both snapshots
}

// RunResult contains all data from a reconciliation run.
type RunResult struct {
	Plan    *PlanResult
	Applied *ApplyResult // Nil on a dry run
	DryRun  bool
}

// SyncEngine defines the reconciliation operations.
type SyncEngine interface {
	// Plan fetches both favorite lists and computes the delta without mutating anything.
	Plan(ctx context.Context, progress chan<- ProgressUpdate) (*PlanResult, error)

	// Run plans, then applies the delta unless dryRun is set.
	Run(ctx context.Context, dryRun bool, progress chan<- ProgressUpdate) (*RunResult, error)
}

// EngineOpts configures an [Engine].
type EngineOpts struct {
	Username        string          // Remote account whose loved list is reconciled
	Policy          identity.Policy // Collision policy, keep-last by default
	RetryLocalFetch bool            // Apply the retry policy to the local fetch too
	CallTimeout     time.Duration   // Timeout for the starred fetch and each mutation, zero disables it
	Retrier         *shared.Retrier
	Limiter         *rate.Limiter
	Logger          *log.Logger
}

// Engine implements [SyncEngine] between a starred source and a loved service.
type Engine struct {
	local      services.StarredSource
	remote     services.LovedService
	applier    *Applier
	retrier    *shared.Retrier
	username   string
	policy     identity.Policy
	retryLocal bool
	timeout    time.Duration
	logger     *log.Logger
}

// NewEngine creates a new [Engine] with the provided services.
func NewEngine(local services.StarredSource, remote services.LovedService, opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Retrier == nil {
		opts.Retrier = shared.NewRetrier(time.Second, opts.Logger)
	}

	return &Engine{
		local:  local,
		remote: remote,
		applier: NewApplier(remote, ApplierOpts{
			Retrier:     opts.Retrier,
			Limiter:     opts.Limiter,
			CallTimeout: opts.CallTimeout,
			Logger:      opts.Logger,
		}),
		retrier:    opts.Retrier,
		username:   opts.Username,
		policy:     opts.Policy,
		retryLocal: opts.RetryLocalFetch,
		timeout:    opts.CallTimeout,
		logger:     opts.Logger,
	}
}

// Plan fetches the local favorites and the remote loved list, keys both and diffs them.
//
// The remote fetch is retried as a whole on failure. The local fetch is retried only when
// RetryLocalFetch is set.
func (e *Engine) Plan(ctx context.Context, progress chan<- ProgressUpdate) (*PlanResult, error) {
	if e.local == nil {
		return nil, fmt.Errorf("%w: starred source not initialized", shared.ErrServiceUnavailable)
	}
	if e.remote == nil {
		return nil, fmt.Errorf("%w: loved service not initialized", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, fetchingUpdate(FetchLocal, e.local.Name()))
	localSongs, err := e.fetchLocal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s favorites: %w", e.local.Name(), err)
	}

	local := identity.Build(e.local.Name(), localSongs, e.policy)
	e.logger.Info("Fetched local favorites", "source", local.Source, "songs", len(localSongs), "keys", local.Len())
	sendProgress(progress, fetchedUpdate(FetchLocal, local))

	sendProgress(progress, fetchingUpdate(FetchRemote, e.remote.Name()))
	// The loved list is paged, so CallTimeout cannot bound the whole read. The service bounds each page.
	remoteSongs, err := shared.Retry(ctx, e.retrier, "fetch "+e.remote.Name()+" loved tracks",
		func(ctx context.Context) ([]models.Song, error) {
			return e.remote.FetchLoved(ctx, e.username)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s loved tracks: %w", e.remote.Name(), err)
	}

	remote := identity.Build(e.remote.Name(), remoteSongs, e.policy)
	e.logger.Info("Fetched remote loved tracks", "source", remote.Source, "songs", len(remoteSongs), "keys", remote.Len())
	sendProgress(progress, fetchedUpdate(FetchRemote, remote))

	collisions := e.warnCollisions(local.Source, localSongs)
	remoteCollisions := e.warnCollisions(remote.Source, remoteSongs)

	delta := Diff(local, remote)
	sendProgress(progress, compareUpdate(delta))

	return &PlanResult{
		Local:            local,
		Remote:           remote,
		Delta:            delta,
		Collisions:       collisions,
		RemoteCollisions: remoteCollisions,
		Policy:           e.policy,
	}, nil
}

// warnCollisions logs every key of source shared by several songs. Only one of them takes part in the diff.
func (e *Engine) warnCollisions(source string, songs []models.Song) map[string][]models.Song {
	collisions := identity.Collisions(songs)
	for key, clashing := range collisions {
		e.logger.Warn("Songs share an identity key", "source", source, "key", key, "count", len(clashing), "policy", e.policy)
	}
	return collisions
}

func (e *Engine) fetchLocal(ctx context.Context) ([]models.Song, error) {
	fetch := func(ctx context.Context) ([]models.Song, error) {
		callCtx, cancel := withCallTimeout(ctx, e.timeout)
		defer cancel()
		return e.local.FetchStarred(callCtx)
	}

	if !e.retryLocal {
		return fetch(ctx)
	}
	return shared.Retry(ctx, e.retrier, "fetch "+e.local.Name()+" favorites", fetch)
}

// Run performs a full reconciliation. With dryRun set only the plan is computed.
func (e *Engine) Run(ctx context.Context, dryRun bool, progress chan<- ProgressUpdate) (*RunResult, error) {
	plan, err := e.Plan(ctx, progress)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Plan: plan, DryRun: dryRun}
	if dryRun {
		e.logger.Info("Dry run, skipping remote changes", "missing", len(plan.Delta.Missing), "extra", len(plan.Delta.Extra))
		return result, nil
	}

	applied, err := e.applier.Apply(ctx, plan.Delta, progress)
	result.Applied = applied
	if err != nil {
		return result, err
	}

	return result, nil
}
