package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/v4vx/internal/formatter"
	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/reconcile"
	"github.com/desertthunder/v4vx/internal/shared"
	"github.com/desertthunder/v4vx/internal/tasks"
	"github.com/desertthunder/v4vx/internal/ui"
	"github.com/urfave/cli/v3"
)

// readReferences accepts a bare array of references or a {"references": [...]} object.
func readReferences(path string) ([]models.RemoteItemReference, error) {
	var raw json.RawMessage
	if err := readJSONFile(path, &raw); err != nil {
		return nil, err
	}

	var refs []models.RemoteItemReference
	if err := json.Unmarshal(raw, &refs); err != nil {
		var wrapped struct {
			References []models.RemoteItemReference `json:"references"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %s holds neither a reference array nor {\"references\": [...]}", shared.ErrInvalidInput, path)
		}
		refs = wrapped.References
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: %s contains no references", shared.ErrInvalidInput, path)
	}
	for i, ref := range refs {
		if !ref.Valid() {
			return nil, fmt.Errorf("%w: reference %d requires feedGuid and itemGuid", shared.ErrInvalidInput, i)
		}
	}
	return refs, nil
}

// Batch resolves every reference in --input, writes a report, and optionally merges the
// results into the track store.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	if _, err := formatter.Export(nil, format); err != nil {
		return err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := r.preflight(config); err != nil {
		return err
	}

	refs, err := readReferences(cmd.String("input"))
	if err != nil {
		return err
	}

	res, err := r.newResolver(config)
	if err != nil {
		return err
	}
	engine := r.newEngine(config, res)

	var prog chan tasks.ProgressUpdate
	var done <-chan struct{}
	if cmd.Bool("quiet") {
		closed := make(chan struct{})
		close(closed)
		done = closed
	} else {
		prog = make(chan tasks.ProgressUpdate, 16)
		done = ui.WatchProgress(r.status, prog)
	}

	started := r.now().UTC()
	r.logger.Info("starting batch", "references", len(refs), "input", cmd.String("input"))
	result, batchErr := engine.ResolveBatch(ctx, refs, prog)
	if prog != nil {
		close(prog)
	}
	<-done

	run := r.record(config, "batch", started, result)

	summary := r.status
	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(result, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("report written", "path", written)
		summary = r.output
	} else {
		data, err := formatter.Export(result, format)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	fmt.Fprintln(summary, ui.RenderBatch(result))

	if batchErr != nil {
		return fmt.Errorf("batch interrupted: %w", batchErr)
	}

	if cmd.Bool("merge") {
		return r.mergeBatch(ctx, config, cmd.String("source"), refs, result, run, summary)
	}
	return nil
}

func (r *Runner) mergeBatch(
	ctx context.Context,
	config *shared.Config,
	source string,
	refs []models.RemoteItemReference,
	result tasks.BatchResult,
	run *models.Run,
	w io.Writer,
) error {
	if source == "" {
		source = config.Store.Source
	}

	incoming := reconcile.FromBatch(refs, result, source, r.now().UTC())
	opts := reconcile.ApplyOpts{Source: source}
	if run != nil {
		opts.RunID = run.ID
	}

	applied, err := r.newReconciler(config).Apply(ctx, config.Store.Path, incoming, opts)
	if err != nil {
		return fmt.Errorf("failed to merge into store: %w", err)
	}

	fmt.Fprintln(w, ui.RenderApply(applied))
	return nil
}
