package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibe/internal/curator"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/desertthunder/vibe/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive seed/result terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.client == nil {
		return fmt.Errorf("%w: recommendation client not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logFile := r.config.Log.File
	if logFile == "" {
		logFile = "./tmp/vibe-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	var recorder ui.Recorder
	if rec := r.recorder(); rec != nil {
		recorder = rec
	}

	controller := curator.NewController(r.client, r.client.DefaultK(), r.logger)
	model := ui.NewModel(ctx, controller, recorder, r.logger)

	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
