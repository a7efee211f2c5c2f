package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/pollwidget"
	"github.com/jpalmerr/pollwidget/config"
	"github.com/jpalmerr/pollwidget/fermentrack"
	"github.com/jpalmerr/pollwidget/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render widgets in the terminal",
	Long: `Poll the configured widgets and render them in the terminal.

On a terminal this opens a full-screen view with one panel per widget
(press q to quit). When stdout is redirected, one line is printed per
completed poll instead.

The web dashboard is not served unless --dashboard is given.

Example:
  pollwidget watch --base-url http://fermentrack.local
  pollwidget watch -c board.yaml --plain | tee polls.log`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("plain", false, "print one line per update even on a terminal")
	watchCmd.Flags().Bool("dashboard", false, "also serve the web dashboard")
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runWatch(cmd *cobra.Command, args []string) error {
	plain, _ := cmd.Flags().GetBool("plain")
	interactive := !plain && isTerminal(os.Stdout)

	// log lines would corrupt the full-screen view
	var logOut io.Writer = os.Stderr
	if interactive {
		logOut = io.Discard
	}
	level, _ := cmd.Flags().GetString("log-level")
	logger, err := newLogger(logOut, level)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	widgets, err := config.BuildWidgets(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build widgets: %w", err)
	}

	opts := boardOptions(cfg, widgets, logger)
	if dashboard, _ := cmd.Flags().GetBool("dashboard"); !dashboard {
		opts = append(opts, pollwidget.WithoutDashboard())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !interactive {
		printer := tui.NewPrinter(cmd.OutOrStdout())
		board, err := pollwidget.New(append(opts, pollwidget.WithUpdateCallback(printer.Print))...)
		if err != nil {
			return fmt.Errorf("failed to create board: %w", err)
		}
		return runBoard(ctx, board, logger)
	}

	model := tui.New(cfg.Title, widgetInfos(widgets))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	board, err := pollwidget.New(append(opts, pollwidget.WithUpdateCallback(func(u pollwidget.Update) {
		p.Send(tui.UpdateMsg(u))
	}))...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	return runInteractive(ctx, p, board)
}

// runInteractive runs the board alongside the terminal program until either
// stops, then shuts the other down.
func runInteractive(ctx context.Context, p *tea.Program, board *pollwidget.Board) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	boardErr := make(chan error, 1)
	go func() {
		err := board.Start(ctx)
		boardErr <- err
		if err != nil {
			p.Quit()
		}
	}()

	_, runErr := p.Run()
	cancel()

	var err error
	select {
	case err = <-boardErr:
	case <-time.After(shutdownTimeout):
		err = fmt.Errorf("board did not stop within %s", shutdownTimeout)
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI: %w", runErr)
	}
	return err
}

// widgetInfos reserves a panel for every widget in board order.
func widgetInfos(widgets []pollwidget.Source) []tui.WidgetInfo {
	infos := make([]tui.WidgetInfo, 0, len(widgets))
	for _, w := range widgets {
		infos = append(infos, tui.WidgetInfo{
			Name: w.Name(),
			Kind: w.Labels()[fermentrack.KindLabel],
		})
	}
	return infos
}
