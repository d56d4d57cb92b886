package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parcelcal/parcelcal/internal/logx"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the pipeline on a schedule until interrupted",
	Long: `Starts the scheduler and re-runs the pipeline at the configured
interval. The configuration file is watched, so credential and source
edits apply without a restart. Stops cleanly on SIGINT or SIGTERM.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler service not configured")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if configStore != nil {
		go func() {
			err := configStore.Watch(ctx, onConfigChange, log)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("config watcher stopped", logx.Err(err))
			}
		}()
	}

	cmd.Println("parcelcal daemon started; press Ctrl-C to stop")
	if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler: %w", err)
	}

	if err := scheduler.Stop(); err != nil {
		log.Warn("scheduler stop", logx.Err(err))
	}
	cmd.Println("parcelcal daemon stopped")
	return nil
}
