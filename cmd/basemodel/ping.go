package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping [connection]",
	Short: "Check that a REST connection answers",
	Long: `Issue GET / against a connection and print the response.

Without an argument the default connection is used: the one named
"default", else the first configured, else $REST_ENDPOINT_URL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	conn, err := a.Registry.Default()
	if len(args) == 1 {
		conn, err = a.Registry.Get(args[0])
	}
	if err != nil {
		return err
	}

	result, err := conn.Ping(cmd.Context())
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", crossMark, conn.Name(), conn.Endpoint())
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", checkMark, conn.Name(), conn.Endpoint())
	if result != nil && result != "" {
		return writeYAML(cmd, result)
	}
	return nil
}
