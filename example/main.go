// Command example embeds the widget board as a library against a mock
// Fermentrack server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/pollwidget"
	"github.com/jpalmerr/pollwidget/example/mockfermentrack"
	"github.com/jpalmerr/pollwidget/fermentrack"
)

const mockAddr = "localhost:8001"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// start the mock backend (see mockfermentrack)
	mock := mockfermentrack.New(logger)
	go func() {
		if err := http.ListenAndServe(mockAddr, mock.Handler()); err != nil {
			logger.Error("mock server error", "error", err)
			os.Exit(1)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	baseURL := "http://" + mockAddr

	lcd, err := fermentrack.NewLCDWidget(baseURL, pollwidget.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create LCD widget", "error", err)
		os.Exit(1)
	}
	gravity, err := fermentrack.NewGravityWidget(baseURL,
		pollwidget.WithLogger(logger),
		pollwidget.WithTimeout(3*time.Second),
		pollwidget.WithCallback(func(u pollwidget.Update) {
			if u.Error != nil {
				return
			}
			fmt.Printf("gravity v%d updated after %s\n", u.Version, u.Latency.Round(time.Millisecond))
		}),
	)
	if err != nil {
		logger.Error("failed to create gravity widget", "error", err)
		os.Exit(1)
	}

	board, err := pollwidget.New(
		pollwidget.WithWidgets(lcd, gravity),
		pollwidget.WithPort(8080),
		pollwidget.WithTitle("Demo Brewery"),
		pollwidget.WithBoardLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create board", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  Widget board demo")
	fmt.Println()
	fmt.Println("  Dashboard: http://localhost:8080")
	fmt.Println("  Widgets:   lcd (every 5s), gravity (every 10s)")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Start(ctx); err != nil {
		logger.Error("board error", "error", err)
		os.Exit(1)
	}
}
