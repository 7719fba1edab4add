package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vibe/internal/formatter"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/desertthunder/vibe/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Batch requests and exports playlists for every seed argument, streaming progress as it goes.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	seeds := cmd.Args().Slice()
	if len(seeds) == 0 {
		return fmt.Errorf("%w: at least one seed song id is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	opts := tasks.BatchOpts{
		Format:     format,
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: r.config.Batch.Workers,
		RateLimit:  r.config.Batch.RateLimit,
		K:          r.client.DefaultK(),
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}
	if k := cmd.Int("k"); k > 0 {
		opts.K = k
	}
	if !cmd.Bool("no-history") {
		if rec := r.recorder(); rec != nil {
			opts.Recorder = rec
		}
	}

	prog := make(chan tasks.ProgressUpdate, 16)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for u := range prog {
			r.writePlain("%s\n", u.Message)
		}
	}()

	result, err := r.engine.BatchRecommend(ctx, prog, seeds, opts)
	close(prog)
	<-printed

	if result != nil {
		r.writePlainln("Completed: %d succeeded, %d failed", result.Succeeded, result.Failed)
		if result.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", result.ManifestPath)
		}
	}
	return err
}
