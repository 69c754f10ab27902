// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file (default: ./config.toml, then the user config dir)",
	}
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable debug logging",
	}
}

func policyFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "policy",
		Usage: "Collision policy for songs sharing a key (keep-last, keep-first, keep-all)",
	}
}

// syncCommand runs a full reconciliation
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Love starred songs and unlove songs that are no longer starred",
		Flags: []cli.Flag{
			configFlag(),
			verboseFlag(),
			policyFlag(),
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Print the changes without applying them",
			},
		},
		Action: r.Sync,
	}
}

// diffCommand prints or exports the delta without touching the remote list
func diffCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "diff",
		Usage: "Show songs that would be loved or unloved",
		Flags: []cli.Flag{
			configFlag(),
			verboseFlag(),
			policyFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, csv, markdown, json)",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.Diff,
	}
}

// authCommand handles Last.fm session management
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Last.fm session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Last.fm in the browser and cache the session key",
				Flags:  []cli.Flag{configFlag(), verboseFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show where the session key comes from",
				Flags:  []cli.Flag{configFlag(), verboseFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the cached session key",
				Flags:  []cli.Flag{configFlag(), verboseFlag()},
				Action: r.AuthLogout,
			},
		},
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write an example config file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the file (default: the user config dir)",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the session database and run migrations",
				Flags:  []cli.Flag{configFlag(), verboseFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// normalizeCommand prints the identity key of a song
func normalizeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Print the key used to match a song",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "artist"},
			&cli.StringArg{Name: "title"},
		},
		Action: r.Normalize,
	}
}
