package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/v4vx/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the resolution API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := r.preflight(config); err != nil {
		return err
	}

	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := int(cmd.Int("port")); port > 0 {
		config.Server.Port = port
	}

	res, err := r.newResolver(config)
	if err != nil {
		return err
	}

	ledger, closeLedger, err := r.openLedger(config)
	if err != nil {
		return err
	}
	defer closeLedger()

	opts := server.APIOpts{
		Batch:  r.newEngine(config, res),
		Cache:  res,
		Logger: r.logger,
	}
	if ledger != nil {
		opts.Record = ledger.Record
	}

	router := server.NewRouter(server.NewAPI(opts), r.logger)
	if err := server.Serve(ctx, config.Server.Addr(), router, r.logger); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
