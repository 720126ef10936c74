package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/basemodel/bootstrap"
	"github.com/artpar/basemodel/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the basemodel configuration file.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - Every model backend can be built (source folders exist)

Examples:
  basemodel validate
  basemodel validate --config /etc/basemodel/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config syntax valid\n", checkMark)

	a, err := bootstrap.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		fmt.Fprintf(out, "  %s Models build\n", crossMark)
		return err
	}
	defer a.Shutdown()
	fmt.Fprintf(out, "  %s Models build\n", checkMark)

	fmt.Fprintf(out, "\n  Connections: %d\n", len(cfg.Connections))
	fmt.Fprintf(out, "  Models: %d\n", len(cfg.Models))
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
