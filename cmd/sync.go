package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/lovesync/internal/formatter"
	"github.com/desertthunder/lovesync/internal/models"
	"github.com/desertthunder/lovesync/internal/shared"
	"github.com/desertthunder/lovesync/internal/tasks"
	"github.com/desertthunder/lovesync/internal/ui"
)

// Sync reconciles the Last.fm loved list with the Subsonic starred list.
//
// A dry run only reads, so no session key is needed.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.setup(ctx, cmd); err != nil {
		return err
	}
	defer r.close()

	dryRun := cmd.Bool("dry-run")
	logger := shared.WithLogger(r.logger, "run_id", shared.GenerateID())

	if !dryRun {
		if err := r.authorize(ctx); err != nil {
			return err
		}
	}

	engine, err := r.engine(cmd, logger)
	if err != nil {
		return err
	}

	logger.Info("starting sync", "user", r.config.LastFM.Username, "dry_run", dryRun)

	progressCh, stop := r.watchProgress()
	result, err := engine.Run(ctx, dryRun, progressCh)
	stop()

	if err != nil {
		if result != nil && result.Applied != nil {
			r.writeSummary(result)
		}
		return err
	}

	r.writeSummary(result)
	if dryRun {
		r.writeDelta(result.Plan.Delta)
	}
	r.writePlainln("%s", ui.Styles().OK("Done!"))
	return nil
}

// authorize resolves a session key and installs it on the loved service.
func (r *Runner) authorize(ctx context.Context) error {
	holder, ok := r.remote.(sessionHolder)
	if !ok {
		return nil
	}

	key, source, err := r.provider().Resolve(ctx)
	if err != nil {
		return err
	}
	r.logger.Debug("resolved session key", "source", source)
	holder.SetSessionKey(key)
	return nil
}

func (r *Runner) writeSummary(result *tasks.RunResult) {
	plan := result.Plan
	styles := ui.Styles()

	r.writePlain("\n")
	if result.DryRun {
		r.writePlainHeader("Dry Run")
	} else {
		r.writePlainHeader("Sync Complete")
	}

	r.writePlain("%s: %d favorites\n", plan.Local.Source, plan.Local.Len())
	r.writePlain("%s: %d loved\n", plan.Remote.Source, plan.Remote.Len())
	r.writePlain("%s\n", styles.Count("Missing", len(plan.Delta.Missing)))
	r.writePlain("%s\n", styles.Count("Extra", len(plan.Delta.Extra)))

	if len(plan.Collisions) > 0 {
		r.writePlain("%s\n", styles.Warn(fmt.Sprintf("%s: %d key(s) shared by several songs, resolved with %s", plan.Local.Source, len(plan.Collisions), plan.Policy)))
	}
	if len(plan.RemoteCollisions) > 0 {
		r.writePlain("%s\n", styles.Warn(fmt.Sprintf("%s: %d key(s) shared by several songs, resolved with %s", plan.Remote.Source, len(plan.RemoteCollisions), plan.Policy)))
	}

	if applied := result.Applied; applied != nil {
		r.writePlain("Loved: %d\nUnloved: %d\nRemote calls: %d\n", applied.Loved, applied.Unloved, applied.Attempts)
	}
}

func (r *Runner) writeDelta(delta models.Delta) {
	if delta.Empty() {
		r.writePlainln("Already in sync.")
		return
	}

	if len(delta.Extra) > 0 {
		r.writePlainln("Would unlove:")
		for i, song := range delta.Extra {
			r.writePlain("  %d. %s - %s\n", i+1, song.Artist, song.Title)
		}
	}

	if len(delta.Missing) > 0 {
		r.writePlainln("Would love:")
		for i, song := range delta.Missing {
			r.writePlain("  %d. %s - %s\n", i+1, song.Artist, song.Title)
		}
	}
}

// Diff computes the delta and prints or exports it.
func (r *Runner) Diff(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if err := r.setup(ctx, cmd); err != nil {
		return err
	}
	defer r.close()

	logger := shared.WithLogger(r.logger, "run_id", shared.GenerateID())
	engine, err := r.engine(cmd, logger)
	if err != nil {
		return err
	}

	plan, err := engine.Plan(ctx, nil)
	if err != nil {
		return err
	}

	report := formatter.Report{Local: plan.Local, Remote: plan.Remote, Delta: plan.Delta}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteExport(report, format, output)
		if err != nil {
			return err
		}
		logger.Info("delta exported", "path", path, "format", format)
		return r.writePlain("✓ Delta written to %s\n", path)
	}

	data, err := formatter.Export(report, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
