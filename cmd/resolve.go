package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/shared"
	"github.com/desertthunder/v4vx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Resolve resolves one reference and prints the track.
//
// A failed resolution is reported, not returned: only configuration problems exit non-zero.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	ref := models.RemoteItemReference{
		FeedGUID: strings.TrimSpace(cmd.String("feed-guid")),
		ItemGUID: strings.TrimSpace(cmd.String("item-guid")),
	}
	if !ref.Valid() {
		return fmt.Errorf("%w: --feed-guid and --item-guid must not be empty", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := r.preflight(config); err != nil {
		return err
	}

	res, err := r.newResolver(config)
	if err != nil {
		return err
	}

	started := r.now().UTC()
	r.logger.Debug("resolving reference", "key", ref.Key())
	track := res.Resolve(ctx, ref.FeedGUID, ref.ItemGUID)
	r.record(config, "resolve", started, map[string]models.ResolvedTrack{ref.Key(): track})

	if cmd.Bool("json") {
		return r.writeJSON(map[string]models.ResolvedTrack{ref.Key(): track}, true)
	}
	return r.writePlainln("%s", ui.RenderTrack(ref, track))
}
