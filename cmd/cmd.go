// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// commonFlags prepends the flags every command accepts.
func commonFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}, flags...)
}

func serviceFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "service",
		Aliases:  []string{"s"},
		Usage:    "Service name (spotify, tidal, youtube)",
		Required: required,
	}
}

func tracksFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "tracks",
		Aliases: []string{"t"},
		Usage:   "Read \"Artist - Title\" lines from a file (- for stdin) instead of the configured source",
	}
}

func formatFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   usage,
		Value:   "txt",
	}
}

func outputFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path",
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the run history database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config file",
				Flags:  commonFlags(),
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  commonFlags(),
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Flags:  commonFlags(),
				Action: r.SetupRollback,
			},
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize playlist writes",
		Commands: []*cli.Command{
			{
				Name:    "spotify",
				Aliases: []string{"spot"},
				Usage:   "Authenticate with Spotify using OAuth2 and store the refresh token",
				Flags: commonFlags(
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 2 * time.Minute,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				),
				Action: r.AuthSpotify,
			},
		},
	}
}

func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tracks",
		Usage:  "List the tracks the source currently provides",
		Flags:  commonFlags(append([]cli.Flag{tracksFlag()}, jsonFlags()...)...),
		Action: r.Tracks,
	}
}

func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Resolve source tracks on every enabled service and replace the target playlists",
		Flags: commonFlags(append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:    "service",
				Aliases: []string{"s"},
				Usage:   "Sync only these services (repeatable)",
			},
			tracksFlag(),
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Resolve and update caches without touching playlists",
			},
		}, jsonFlags()...)...),
		Action: r.Sync,
	}
}

func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve tracks on one service without pruning the cache or writing a playlist",
		ArgsUsage: "[\"Artist - Title\" ...]",
		Flags: commonFlags(
			serviceFlag(true),
			tracksFlag(),
			formatFlag("Output format (txt, csv, json)"),
			outputFlag(),
		),
		Action: r.Resolve,
	}
}

func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and maintain the per-service resolution caches",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print or export a service cache",
				Flags: commonFlags(
					serviceFlag(true),
					formatFlag("Output format (txt, csv, markdown, json)"),
					outputFlag(),
				),
				Action: r.CacheShow,
			},
			{
				Name:   "stats",
				Usage:  "Count cache entries by outcome",
				Flags:  commonFlags(append([]cli.Flag{serviceFlag(false)}, jsonFlags()...)...),
				Action: r.CacheStats,
			},
			{
				Name:   "prune",
				Usage:  "Drop cache entries for tracks the source no longer provides",
				Flags:  commonFlags(serviceFlag(true), tracksFlag()),
				Action: r.CachePrune,
			},
			{
				Name:   "clear",
				Usage:  "Delete a service cache",
				Flags:  commonFlags(serviceFlag(true)),
				Action: r.CacheClear,
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded sync runs",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "Show recent runs, newest first",
				Flags: commonFlags(append([]cli.Flag{
					serviceFlag(false),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Usage:   "Maximum number of runs to show",
						Value:   20,
					},
				}, jsonFlags()...)...),
				Action: r.History,
			},
			{
				Name:  "prune",
				Usage: "Delete runs older than a duration",
				Flags: commonFlags(
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age of the oldest run to keep, e.g. 720h",
						Value: 30 * 24 * time.Hour,
					},
				),
				Action: r.HistoryPrune,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Review source tracks and sync them interactively",
		Flags: commonFlags(
			&cli.StringSliceFlag{
				Name:    "service",
				Aliases: []string{"s"},
				Usage:   "Sync only these services (repeatable)",
			},
			tracksFlag(),
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Resolve and update caches without touching playlists",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/ltx-tui.log",
			},
		),
		Action: r.TUI,
	}
}
