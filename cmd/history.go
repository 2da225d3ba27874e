package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/v4vx/internal/repositories"
	"github.com/desertthunder/v4vx/internal/shared"
	"github.com/desertthunder/v4vx/internal/ui"
	"github.com/urfave/cli/v3"
)

func (r *Runner) requireLedger(cmd *cli.Command) (*repositories.Ledger, func(), error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if config.Database.Path == "" {
		return nil, nil, fmt.Errorf("%w: database.path is empty, the ledger is disabled", shared.ErrMissingConfig)
	}
	return r.openLedger(config)
}

// HistoryRuns lists recent runs, newest first.
func (r *Runner) HistoryRuns(ctx context.Context, cmd *cli.Command) error {
	ledger, closeLedger, err := r.requireLedger(cmd)
	if err != nil {
		return err
	}
	defer closeLedger()

	runs, err := ledger.Runs.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}
	return r.writePlainln("%s", ui.RenderRuns(runs))
}

// HistoryFailures lists recent failed references, newest first.
func (r *Runner) HistoryFailures(ctx context.Context, cmd *cli.Command) error {
	ledger, closeLedger, err := r.requireLedger(cmd)
	if err != nil {
		return err
	}
	defer closeLedger()

	failures, err := ledger.Resolutions.Failures(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(failures, true)
	}
	return r.writePlainln("%s", ui.RenderFailures(failures))
}
