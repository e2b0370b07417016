package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/clinote/clinote/internal/tui"
)

func (e *env) newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:     "tui",
		Aliases: []string{"i", "ui"},
		Short:   "Launch interactive TUI",
		Long: `Launch the interactive terminal UI.

Views:
  1 Doctor      pick the active doctor, create new doctor codes
  2 Samples     upload corrected reports (.txt/.docx) as style samples
  3 Dictation   turn an audio dictation into draft.docx

Press ? inside the TUI for all keys.`,
		RunE: e.runTUI,
	}
}

func (e *env) runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ctrl := e.controller()
	defer ctrl.Close()

	p := tea.NewProgram(
		tui.NewApp(ctx, ctrl, tui.Options{Doctor: e.cfg.Doctor}),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
