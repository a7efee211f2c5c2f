package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pollwidget"
	"github.com/jpalmerr/pollwidget/config"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the web dashboard.

The server will:
  - Load configuration (or the default Fermentrack widgets)
  - Mount every widget, polling immediately and then on its interval
  - Serve the dashboard, the JSON API and the SSE stream

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  pollwidget serve -c board.yaml
  pollwidget serve --base-url http://fermentrack.local --port 9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "HTTP port, overrides the config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	logger, err := newLogger(os.Stderr, level)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}

	widgets, err := config.BuildWidgets(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build widgets: %w", err)
	}

	logger.Info("config loaded", "widgets", len(widgets))
	logger.Info("starting server", "port", cfg.Port)

	board, err := pollwidget.New(boardOptions(cfg, widgets, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runBoard(ctx, board, logger)
}

// runBoard starts the board and waits for it to stop, bounding the wait
// after cancellation by shutdownTimeout.
func runBoard(ctx context.Context, board *pollwidget.Board, logger *slog.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- board.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

// boardOptions translates the loaded config into board options.
func boardOptions(cfg *config.Config, widgets []pollwidget.Source, logger *slog.Logger) []pollwidget.BoardOption {
	opts := []pollwidget.BoardOption{
		pollwidget.WithWidgets(widgets...),
		pollwidget.WithPort(cfg.Port),
		pollwidget.WithBoardLogger(logger),
	}
	if cfg.Title != "" {
		opts = append(opts, pollwidget.WithTitle(cfg.Title))
	}
	return opts
}
