package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui"
	"github.com/custodia-labs/docrag/internal/logger"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Launch the interactive ask console",
	Long: `Launch an interactive console for asking questions about the user's
documents. Answers are shown with the documents they cite.

Controls:
  Enter          - Ask
  PgUp/PgDn      - Scroll answers
  Ctrl+R         - Rebuild the index
  Ctrl+L         - Clear answers
  Esc / Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in console: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	user, err := requireUser()
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Query:        queryService,
		Index:        indexService,
		UserID:       user,
		QueryTimeout: queryTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create console: %w", err)
	}
	app.WithContext(cmd.Context())

	stop := startScheduler(cmd.Context())
	defer stop()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}

// startScheduler runs periodic rebuilds in the background for long-running
// commands. The returned function stops it.
func startScheduler(ctx context.Context) func() {
	if scheduler == nil || !schedulerConfig.Enabled() {
		return func() {}
	}

	schedulerCtx, cancel := context.WithCancel(ctx)
	go func() {
		if err := scheduler.Start(schedulerCtx); err != nil {
			logger.Warn("scheduler stopped: %v", err)
		}
	}()

	return func() {
		cancel()
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler stop error: %v", err)
		}
	}
}
