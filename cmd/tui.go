package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/chuongle2003/chorus-cli/internal/chat"
	"github.com/chuongle2003/chorus-cli/internal/shared"
	"github.com/chuongle2003/chorus-cli/internal/ui"
)

// TUI launches the interactive chat interface.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.tokens.User(); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return fmt.Errorf("%w: run 'chorus auth login <username>' first", shared.ErrNotAuthenticated)
		}
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/chorus-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	var writeThrough chat.CacheWriter
	if db, cache, err := r.openCache(); err != nil {
		fileLogger.Warn("offline cache unavailable", "error", err)
	} else {
		defer db.Close()
		writeThrough = cache
	}

	session := r.newSession(writeThrough)
	defer session.Stop()

	model := ui.NewModel(ctx, session)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
