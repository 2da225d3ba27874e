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

// setupCommand handles setup operations for configuration and the ledger database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the example configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the resolution ledger and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// resolveCommand resolves a single remote item reference
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve one feedGuid/itemGuid reference",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "feed-guid",
				Aliases:  []string{"f"},
				Usage:    "podcast:guid of the hosting feed",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "item-guid",
				Aliases:  []string{"i"},
				Usage:    "GUID of the item within the feed",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Resolve,
	}
}

// batchCommand resolves a file of references
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Resolve a JSON file of references in waves",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"in"},
				Usage:    "JSON file with [{feedGuid, itemGuid}] or {\"references\": [...]}",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: json, csv or txt",
				Value: "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file path (default: stdout)",
			},
			&cli.BoolFlag{
				Name:  "merge",
				Usage: "Merge resolved tracks into the track store",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Provenance tag for merged records (default: store.source)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress progress output",
			},
		},
		Action: r.Batch,
	}
}

// storeCommand handles track store maintenance
func storeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Track store operations",
		Commands: []*cli.Command{
			{
				Name:  "merge",
				Usage: "Merge a JSON file of track records into the store",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"in"},
						Usage:    "JSON file with [records] or {\"musicTracks\": [...]}",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Provenance tag for records without one (default: store.source)",
					},
				},
				Action: r.StoreMerge,
			},
			{
				Name:  "cleanup",
				Usage: "Collapse duplicate records and repair ids",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "prune-failed",
						Usage: "Also remove failed records without a playable audio URL",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Back up and rewrite the store even when nothing changed",
					},
				},
				Action: r.StoreCleanup,
			},
			{
				Name:  "stats",
				Usage: "Summarize the store",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.StoreStats,
			},
		},
	}
}

// historyCommand reads the resolution ledger
func historyCommand(r *Runner) *cli.Command {
	limit := func(v int) cli.Flag {
		return &cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of rows to show",
			Value:   v,
		}
	}

	return &cli.Command{
		Name:  "history",
		Usage: "Inspect past runs from the resolution ledger",
		Commands: []*cli.Command{
			{
				Name:   "runs",
				Usage:  "List recent runs",
				Flags:  []cli.Flag{configFlag(), limit(20), &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.HistoryRuns,
			},
			{
				Name:   "failures",
				Usage:  "List recent failed references",
				Flags:  []cli.Flag{configFlag(), limit(50), &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.HistoryFailures,
			},
		},
	}
}

// serveCommand starts the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the resolution HTTP API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default: server.port)",
			},
		},
		Action: r.Serve,
	}
}
