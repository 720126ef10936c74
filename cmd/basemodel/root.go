package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/basemodel/bootstrap"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "basemodel",
	Short: "Inspect models backed by memory, files, YAML documents or REST resources",
	Long: `basemodel reads the models and connections declared in a configuration
file and gives uniform read access to them, whatever their backend.

Examples:
  basemodel models                      # List configured models
  basemodel list Doc --where title=Hello
  basemodel show Widget 42
  basemodel ping                        # GET / on the default connection
  basemodel validate`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "basemodel.yaml", "config file path")
}

// newApp builds the application from the --config file, or from the
// environment when the file does not exist.
func newApp(cmd *cobra.Command) (*bootstrap.App, error) {
	return bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		LogOutput:  cmd.ErrOrStderr(),
	})
}
