package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/vibe/internal/curator"
	"github.com/desertthunder/vibe/internal/formatter"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/services"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/urfave/cli/v3"
)

// Recommend requests a playlist for one seed through the same controller the TUI uses.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	seed := cmd.StringArg("seed")
	if strings.TrimSpace(seed) == "" {
		return fmt.Errorf("%w: seed song id is required", shared.ErrMissingArgument)
	}

	var format formatter.Format
	if f := cmd.String("format"); f != "" {
		parsed, err := formatter.ParseFormat(f)
		if err != nil {
			return err
		}
		format = parsed
	}

	k := cmd.Int("k")
	if k <= 0 {
		k = r.client.DefaultK()
	}

	c := curator.NewController(r.client, k, r.logger)
	c.SetSeedText(seed)

	if err := c.Run(ctx); err != nil {
		var ve *curator.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %q", err, ve.Input)
		}
		return fmt.Errorf("%s: %w", curator.FailureMessage, err)
	}

	result, ok := c.State().(curator.Result)
	if !ok {
		return fmt.Errorf("%w: request did not resolve", shared.ErrAPIRequest)
	}
	data := result.Data

	if !cmd.Bool("no-history") {
		r.record(k, data)
	}

	if format != "" {
		path, err := formatter.WriteExport(&data, format, cmd.String("output"))
		if err != nil {
			return err
		}
		r.logger.Info("exported playlist", "path", path, "format", format)
		return r.writePlain("✓ Exported %d songs to %s\n", data.Len(), path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return r.writePlaylist(data)
}

// record stores data in history, logging rather than returning any failure.
func (r *Runner) record(k int, data models.RecommendationResponse) {
	rec := r.recorder()
	if rec == nil {
		return
	}
	entry, err := rec.Record(k, data)
	if err != nil {
		r.logger.Warn("failed to record history", "err", err)
		return
	}
	r.logger.Debug("recorded history", "sequence", entry.Sequence(), "id", entry.ID())
}

func (r *Runner) writePlaylist(data models.RecommendationResponse) error {
	r.writePlainHeader("Playlist for you")

	text, err := formatter.ExportToText(&data)
	if err != nil {
		return err
	}
	if err := r.writePlain("%s", text); err != nil {
		return err
	}
	if data.Len() == 0 {
		return r.writePlain("No recommendations were returned for this song.\n")
	}
	return nil
}

// Song shows catalog details for one song id.
func (r *Runner) Song(ctx context.Context, cmd *cli.Command) error {
	id, err := parseSongID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	song, err := r.client.GetSong(ctx, id)
	if err != nil {
		if services.IsNotFound(err) {
			return fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, true)
	}

	r.writePlainHeader(formatter.SongLabel(song.Song))
	r.writePlain("ID:     %d\n", song.SongID)
	r.writePlain("Artist: %s\n", valueOr(song.Artist, "unknown"))
	r.writePlain("Genre:  %s\n", valueOr(song.Genre, "unknown"))
	if song.IssueYear != nil {
		r.writePlain("Year:   %d\n", *song.IssueYear)
	}
	return nil
}

// Search lists catalog songs whose name or artist matches the query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	result, err := r.client.SearchSongs(ctx, query, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	if len(result.Items) == 0 {
		return r.writePlain("No songs match %q\n", result.Query)
	}

	r.writePlain("Found %d songs matching %q\n\n", result.Total, result.Query)
	for _, song := range result.Items {
		r.writePlain("%8d  %s\n", song.SongID, formatter.SongLabel(song.Song))
	}
	return nil
}

// Health reports backend readiness.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	health, err := r.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(health, true)
	}

	mark := "✓"
	if !health.OK() {
		mark = "✗"
	}
	r.writePlain("%s Backend %s at %s\n", mark, health.Status, r.client.BaseURL())
	r.writePlain("  Engine:   %s (%s)\n", health.EngineVersion, health.AudioModel)
	r.writePlain("  Metadata: %d songs\n", health.MetaFullCount)
	r.writePlain("  Redis:    %s\n", connected(health.RedisConnected))
	if health.DemoMode {
		r.writePlain("  Demo mode is enabled\n")
	}
	return nil
}

func parseSongID(text string) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}
	id, err := curator.ParseSeed(text)
	if err != nil {
		var ve *curator.ValidationError
		if errors.As(err, &ve) {
			return 0, fmt.Errorf("%w: %q is not a song id", shared.ErrInvalidArgument, ve.Input)
		}
		return 0, err
	}
	return id, nil
}

func formatList() string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func connected(ok bool) string {
	if ok {
		return "connected"
	}
	return "disconnected"
}
