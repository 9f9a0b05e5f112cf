package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui"
)

var errNoTerminal = errors.New("the TUI needs an interactive terminal")

// isTerminal reports whether stdin and stdout are attached to a terminal.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface.

Enter up to three URLs in the sidebar and press Process to index them,
then type a question in the main pane. Each session indexes its own URLs
before it can answer.

Controls:
  Tab / Shift+Tab - Move between fields
  Enter           - Process URLs / Ask
  F1              - Toggle help
  Esc             - Back
  Ctrl+C          - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := requireLLM(); err != nil {
		return err
	}
	if !isTerminal() {
		return errNoTerminal
	}
	// The session starts unindexed: questions fail until URLs are processed,
	// whatever an earlier run left on disk.
	ctx := cmd.Context()
	app, err := tui.NewApp(tui.NewPorts(ingestService, answerService, settingsService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	if err := runProgram(ctx, app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runProgram runs the bubbletea program until it quits.
var runProgram = func(ctx context.Context, model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
