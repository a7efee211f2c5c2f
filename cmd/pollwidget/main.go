// Package main is the entry point for the pollwidget CLI.
//
// The CLI polls a Fermentrack installation (or any JSON endpoints listed in a
// config file) and renders the results as a web dashboard or in the terminal.
//
// Usage:
//
//	pollwidget serve -c board.yaml      # Start the web dashboard
//	pollwidget watch --base-url URL     # Render widgets in the terminal
//	pollwidget validate -c board.toml   # Validate configuration
//	pollwidget version                  # Show version info
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pollwidget/config"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultBaseURL = "${FERMENTRACK_URL:-http://localhost:8000}"

// rootCmd only displays help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "pollwidget",
	Short: "Live widgets for a Fermentrack brewery controller",
	Long: `pollwidget polls JSON endpoints on a fixed cadence and shows the latest
response of each one as a widget.

Without a config file it watches the LCD and gravity lists of the
Fermentrack installation given by --base-url (or $FERMENTRACK_URL).

Quick start:
  pollwidget watch --base-url http://fermentrack.local
  pollwidget serve -c board.yaml   # then open http://localhost:8080

Example config:
  title: Garage Brewery
  base_url: http://fermentrack.local
  widgets:
    - kind: lcd
    - kind: gravity
      interval: 30s`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this pollwidget binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pollwidget %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "path to a YAML or TOML config file")
	flags.String("base-url", defaultBaseURL, "Fermentrack base URL, used when no config file is given")
	flags.StringSlice("env-file", []string{".env"}, "dotenv files loaded before the config is parsed")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
}

// newLogger creates a JSON logger for CLI use.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// loadConfig loads dotenv files, then the config file if one was given,
// falling back to the default Fermentrack widgets.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	if err := config.LoadEnv(envFiles...); err != nil {
		return nil, err
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}

	baseURL, _ := cmd.Flags().GetString("base-url")
	cfg, err := config.Default(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
