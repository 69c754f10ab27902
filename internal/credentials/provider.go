package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/lovesync/internal/services"
	"github.com/desertthunder/lovesync/internal/shared"
)

// Source names where a resolved key came from.
type Source string

const (
	FromConfig      Source = "config"
	FromStore       Source = "store"
	FromInteractive Source = "interactive"
)

// ProviderOpts configures a [Provider].
type ProviderOpts struct {
	SessionKey string               // Pre-configured key, used as-is when set
	Store      Store                // Cache consulted and written by the interactive flow
	Authorizer services.Authorizer  // Token handshake
	Retrier    *shared.Retrier      // Delay between polls
	Open       shared.BrowserOpener // Defaults to [shared.OpenBrowser]
	Out        io.Writer            // Where the authorization URL is printed, stdout by default
	Logger     *log.Logger
}

// Provider resolves a session key.
type Provider struct {
	sessionKey string
	store      Store
	auth       services.Authorizer
	retrier    *shared.Retrier
	open       shared.BrowserOpener
	out        io.Writer
	logger     *log.Logger
}

// NewProvider creates a [Provider]. The retrier is copied with a classifier that retries every
// error, since a pending authorization looks like any other failure.
func NewProvider(opts ProviderOpts) *Provider {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Retrier == nil {
		opts.Retrier = shared.NewRetrier(0, opts.Logger)
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	return &Provider{
		sessionKey: opts.SessionKey,
		store:      opts.Store,
		auth:       opts.Authorizer,
		retrier:    opts.Retrier.WithClassifier(retryAll),
		open:       opts.Open,
		out:        opts.Out,
		logger:     opts.Logger,
	}
}

func retryAll(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Resolve returns a session key and where it came from.
func (p *Provider) Resolve(ctx context.Context) (string, Source, error) {
	if p.sessionKey != "" {
		p.logger.Debug("Using configured session key")
		return p.sessionKey, FromConfig, nil
	}

	if p.store != nil {
		key, err := p.store.Load(ctx)
		if err == nil {
			p.logger.Debug("Using cached session key", "store", p.store)
			return key, FromStore, nil
		}
		if !errors.Is(err, shared.ErrNoSession) {
			return "", "", fmt.Errorf("failed to load cached session: %w", err)
		}
	}

	key, err := p.Login(ctx)
	if err != nil {
		return "", "", err
	}
	return key, FromInteractive, nil
}

// Cached reports whether the store holds a key, without starting the interactive flow.
func (p *Provider) Cached(ctx context.Context) (bool, error) {
	if p.store == nil {
		return false, nil
	}
	_, err := p.store.Load(ctx)
	if errors.Is(err, shared.ErrNoSession) {
		return false, nil
	}
	return err == nil, err
}

// Login runs the interactive authorization flow and caches the resulting key.
//
// The authorization URL is printed and opened in a browser. A browser failure is logged, not
// returned, since the printed URL is enough.
func (p *Provider) Login(ctx context.Context) (string, error) {
	if p.auth == nil {
		return "", fmt.Errorf("%w: no authorizer configured", shared.ErrServiceUnavailable)
	}

	token, err := shared.Retry(ctx, p.retrier, "request auth token", p.auth.RequestToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	url := p.auth.AuthURL(token)
	fmt.Fprintf(p.out, "Please authorize this application to access your account: %s\n\n", url)
	if err := p.open(url); err != nil {
		p.logger.Warn("Could not open browser", "error", err)
	}

	key, err := shared.Retry(ctx, p.retrier, "waiting for authorization", func(ctx context.Context) (string, error) {
		return p.auth.Session(ctx, token)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if p.store != nil {
		if err := p.store.Save(ctx, key); err != nil {
			return "", fmt.Errorf("failed to cache session: %w", err)
		}
		p.logger.Info("Session key saved", "store", p.store)
	}

	return key, nil
}
