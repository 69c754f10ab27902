package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/lovesync/internal/identity"
	"github.com/desertthunder/lovesync/internal/shared"
	"github.com/desertthunder/lovesync/internal/ui"
)

// SetupConfig writes the example config file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		var err error
		if path, err = shared.DefaultConfigPath(); err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("%s Config written to %s\n", ui.Styles().OK("✓"), path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in the [subsonic] and [lastfm] sections\n")
	r.writePlain("2. Run 'lovesync auth login' to authorize Last.fm\n")
	return r.writePlain("3. Run 'lovesync sync --dry-run' to preview the changes\n")
}

// SetupDatabase initializes the session database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenSessionDatabase(ctx, r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	if r.config.Session.Store != "sqlite" {
		r.writePlain("%s\n", ui.Styles().Help("Set [session] store = \"sqlite\" to cache the session key in this database"))
	}
	return r.writePlain("%s Database ready at %s\n", ui.Styles().OK("✓"), r.config.Database.Path)
}

// Normalize prints the key used to match a song across services.
func (r *Runner) Normalize(ctx context.Context, cmd *cli.Command) error {
	artist := cmd.StringArg("artist")
	title := cmd.StringArg("title")
	if artist == "" && title == "" {
		return fmt.Errorf("%w: artist and title", shared.ErrMissingArgument)
	}

	return r.writePlain("%s\n", identity.Normalize(artist, title))
}
