package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/basemodel/app"
	"github.com/artpar/basemodel/bootstrap"
	"github.com/artpar/basemodel/config"
	"github.com/artpar/basemodel/domain/model"
)

var watchCmd = &cobra.Command{
	Use:   "watch <model>",
	Short: "List a model again whenever the configuration or a timer fires",
	Long: `Print the records of a model, then keep running. Each change to the
configuration file (or SIGHUP) re-registers the connections and prints
the records again, so a new endpoint URL or header takes effect without
a restart. Model definitions are read once at startup.

Every listing is a separate YAML document.

Examples:
  basemodel watch Widget
  basemodel watch Widget --where color=red --interval 30s`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchWhere    []string
	watchInterval time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringArrayVarP(&watchWhere, "where", "w", nil, "filter as column=value (repeatable)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "also list on this interval (0 disables)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	filters, err := parseFilters(watchWhere)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	c, err := a.Collection(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)
	return watchCollection(cmd, a, c, filters, watchInterval)
}

// watchCollection lists c once, then again after every configuration
// reload and every interval tick, until the command context is done.
func watchCollection(cmd *cobra.Command, a *bootstrap.App, c app.Collection, filters model.Filters, interval time.Duration) error {
	ctx := cmd.Context()
	if err := listRecords(cmd, c, filters); err != nil {
		return err
	}

	reloaded := make(chan struct{}, 1)
	a.OnReload(func(*config.Config) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	watchErr := make(chan error, 1)
	go func() { watchErr <- a.Watch(ctx) }()

	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	relist := func(reason string) {
		fmt.Fprintln(cmd.OutOrStdout(), "---")
		if err := listRecords(cmd, c, filters); err != nil {
			a.Logger.Warn().Err(err).Str("model", c.Name()).Str("trigger", reason).Msg("list failed")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-watchErr:
			if err != nil {
				return err
			}
			watchErr = nil
		case <-reloaded:
			relist("reload")
		case <-tick:
			relist("interval")
		}
	}
}
