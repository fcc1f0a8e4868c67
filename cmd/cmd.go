// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the queue server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the shared queue server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles Spotify authentication operations.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check whether the queue server is reachable (calls /api/health)",
				Action: r.AuthStatus,
			},
		},
	}
}

// queueCommand handles shared queue operations against a running server.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "queue",
		Aliases: []string{"q"},
		Usage:   "Operate on the shared queue",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show the unplayed queue in play order",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.QueueList,
			},
			{
				Name:  "add",
				Usage: "Search Spotify and queue the best match",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Action: r.QueueAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a song from the queue by its Spotify ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "songId"},
				},
				Action: r.QueueRemove,
			},
			{
				Name:   "shuffle",
				Usage:  "Randomly reorder the queue",
				Action: r.QueueShuffle,
			},
			{
				Name:   "next",
				Usage:  "Advance to the next song",
				Action: r.QueueNext,
			},
			{
				Name:   "clear",
				Usage:  "Remove every unplayed song",
				Action: r.QueueClear,
			},
			{
				Name:  "history",
				Usage: "Show recently played songs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of songs to return", Value: 25},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.QueueHistory,
			},
			{
				Name:  "export",
				Usage: "Write the queue as a shareable playlist document",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: json, csv, markdown, or text",
						Value: "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.QueueExport,
			},
			{
				Name:  "refill",
				Usage: "Re-queue played songs from history, oldest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of songs to re-queue", Value: 10},
					&cli.FloatFlag{Name: "rate", Usage: "Requeue rate in songs per second", Value: 2.0},
				},
				Action: r.QueueRefill,
			},
		},
	}
}

// currentCommand handles the now-playing slot.
func currentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "current",
		Usage: "Show or set the now-playing song",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the now-playing song",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.CurrentShow,
			},
			{
				Name:  "set",
				Usage: "Search Spotify and play the best match right now",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Action: r.CurrentSet,
			},
		},
	}
}

// spotifyCommand handles catalog lookups through the server proxy.
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search the Spotify catalog for tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of tracks to return", Value: 10},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.SpotifySearch,
			},
			{
				Name:  "featured",
				Usage: "Show tracks from Spotify's featured playlist",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of tracks to return", Value: 10},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.SpotifyFeatured,
			},
		},
	}
}

// cacheCommand inspects the local track cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local track cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show how many tracks are cached",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Drop every cached track",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheClear,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the live queue view.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive queue view",
		Action:  r.TUI,
	}
}
