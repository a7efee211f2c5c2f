// Standalone mock Fermentrack server for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/pollwidget watch --base-url http://localhost:8000
//	go run ./cmd/pollwidget serve -c example/board.yaml
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pollwidget/example/mockfermentrack"
)

func main() {
	var addr string

	cmd := &cobra.Command{
		Use:   "mockserver",
		Short: "Serve a fake Fermentrack API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			fmt.Printf("Mock Fermentrack starting on %s\n", addr)
			fmt.Println("Gravity falls from 1.050 towards 1.010 while the server runs")
			fmt.Println("Press Ctrl+C to stop")
			fmt.Println()

			srv := mockfermentrack.New(logger)
			return http.ListenAndServe(addr, srv.Handler())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
