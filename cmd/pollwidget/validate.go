package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pollwidget/config"
)

// validateCmd validates configuration without polling anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate configuration without starting any widgets.

This command parses the YAML or TOML file, expands environment variables,
validates all fields and resolves every widget URL. It's useful for CI/CD
pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  pollwidget validate -c board.yaml
  pollwidget validate --base-url http://fermentrack.local`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	widgets, err := config.BuildWidgets(cfg, nil)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:    %d\n", cfg.Port)
	fmt.Fprintf(out, "  Widgets: %d\n\n", len(widgets))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tINTERVAL\tURL")
	for i, w := range widgets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", w.Name(), cfg.Widgets[i].Kind, w.Interval(), w.URL())
	}
	return tw.Flush()
}
