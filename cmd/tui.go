package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ltx/internal/shared"
	"github.com/desertthunder/ltx/internal/tasks"
	"github.com/desertthunder/ltx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI: review the source tracks, confirm, and watch the sync.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	targets, err := r.targets(cmd.StringSlice("service"))
	if err != nil {
		return err
	}

	source, tracks, err := r.fetchTracks(ctx, cmd.String("tracks"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)

	runs, closeDB, err := r.openRuns(ctx)
	if err != nil {
		r.logger.Warn("run history disabled", "error", err)
	} else {
		defer closeDB()
	}

	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Service.Name()
	}

	var recorder tasks.RunRecorder
	if runs != nil {
		recorder = runs
	}

	model := ui.NewModel(ctx, r.engine(targets, cmd.Bool("dry-run"), recorder), source, names, tracks)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if result := model.Result(); result != nil {
		r.writePlain("%s", ui.Summary(result))
	}
	return nil
}
