package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/vibe/internal/formatter"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/urfave/cli/v3"
)

// historyView is the JSON shape of a recorded playlist.
type historyView struct {
	ID        string                         `json:"id"`
	Sequence  int                            `json:"sequence"`
	K         int                            `json:"k"`
	CreatedAt time.Time                      `json:"created_at"`
	Response  *models.RecommendationResponse `json:"response,omitempty"`
}

func newHistoryView(e *models.HistoryEntry, full bool) historyView {
	v := historyView{ID: e.ID(), Sequence: e.Sequence(), K: e.K(), CreatedAt: e.CreatedAt()}
	if full {
		resp := e.Response()
		v.Response = &resp
	}
	return v
}

// HistoryList prints recorded playlists, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.historyRepo()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if cmd.IsSet("seed") {
		criteria["seed_id"] = cmd.Int64("seed")
	}

	entries, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]historyView, len(entries))
		for i, e := range entries {
			views[i] = newHistoryView(e, false)
		}
		return r.writeJSON(views, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No playlists recorded yet\n")
	}

	for _, e := range entries {
		r.writePlain("#%-4d %s  %-40s %3d songs  %s\n",
			e.Sequence(),
			e.CreatedAt().Local().Format("2006-01-02 15:04"),
			truncate(formatter.SongLabel(e.Response().Seed), 40),
			e.ItemCount(),
			e.Method(),
		)
	}
	return nil
}

// HistoryShow prints one recorded playlist.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	entry, err := r.findHistory(cmd.StringArg("ref"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(newHistoryView(entry, true), true)
	}

	r.writePlain("#%d recorded %s (k=%d)\n", entry.Sequence(), entry.CreatedAt().Local().Format(time.RFC1123), entry.K())
	return r.writePlaylist(entry.Response())
}

// HistoryDelete removes a recorded playlist.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	entry, err := r.findHistory(cmd.StringArg("ref"))
	if err != nil {
		return err
	}

	if err := r.history.Delete(entry.ID()); err != nil {
		return err
	}

	r.logger.Info("deleted history entry", "id", entry.ID(), "sequence", entry.Sequence())
	return r.writePlain("✓ Deleted #%d (%s)\n", entry.Sequence(), formatter.SongLabel(entry.Response().Seed))
}

func (r *Runner) findHistory(ref string) (*models.HistoryEntry, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: history id or #sequence is required", shared.ErrMissingArgument)
	}

	repo, err := r.historyRepo()
	if err != nil {
		return nil, err
	}
	return repo.Find(ref)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
