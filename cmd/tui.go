package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
	"github.com/wherebelong/belong/internal/player"
	"github.com/wherebelong/belong/internal/shared"
	"github.com/wherebelong/belong/internal/ui"
)

// TUI launches the interactive live queue view.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/belong-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	controller := player.NewController(r.api, nil, r.identity, r.logger)
	defer controller.Stop()

	model := ui.NewModel(ctx, r.api, controller, r.identity, r.config.Client.BaseURL)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
