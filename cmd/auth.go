package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/lovesync/internal/ui"
)

// AuthLogin runs the browser authorization flow and caches the session key, replacing any cached one.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.setup(ctx, cmd); err != nil {
		return err
	}
	defer r.close()

	r.logger.Info("starting Last.fm authorization", "store", r.store)

	if _, err := r.provider().Login(ctx); err != nil {
		return err
	}

	return r.writePlain("%s Session key saved to %s\n", ui.Styles().OK("✓"), r.store)
}

// AuthStatus reports where the session key would come from without prompting.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.setup(ctx, cmd); err != nil {
		return err
	}
	defer r.close()

	styles := ui.Styles()

	if r.config.LastFM.SessionKey != "" {
		return r.writePlain("%s Using the configured session key\n", styles.OK("✓"))
	}

	cached, err := r.provider().Cached(ctx)
	if err != nil {
		return err
	}
	if cached {
		return r.writePlain("%s Cached session key in %s\n", styles.OK("✓"), r.store)
	}

	r.writePlain("%s No session key found\n", styles.Warn("!"))
	return r.writePlain("%s\n", styles.Help("Run 'lovesync auth login' to authorize"))
}

// AuthLogout removes the cached session key.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.setup(ctx, cmd); err != nil {
		return err
	}
	defer r.close()

	if err := r.store.Clear(ctx); err != nil {
		return err
	}

	r.logger.Info("session key removed", "store", r.store)
	return r.writePlain("%s Session key removed from %s\n", ui.Styles().OK("✓"), r.store)
}
