package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape all sources once and write the calendar",
	Long: `Runs the full pipeline a single time: authenticate against each
configured source, scrape its order history, normalise the delivery
estimates, and write the iCalendar file.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	if tracker == nil {
		return errors.New("tracker service not configured")
	}

	stats, err := tracker.RunOnce(context.Background())
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	cmd.Printf("Wrote %d deliveries", stats.Orders)
	if outputPath != "" {
		cmd.Printf(" to %s", outputPath)
	}
	cmd.Println()

	if stats.NoMatch > 0 {
		cmd.Printf("  %d statuses could not be parsed (see log)\n", stats.NoMatch)
	}
	if stats.Excluded > 0 {
		cmd.Printf("  %d already-delivered orders skipped\n", stats.Excluded)
	}
	if stats.SourcesSkipped > 0 {
		cmd.Printf("  %d sources skipped (missing or rejected credentials)\n", stats.SourcesSkipped)
	}
	if stats.SourcesFailed > 0 {
		cmd.Printf("  %d sources failed mid-fetch; partial results kept\n", stats.SourcesFailed)
	}
	return nil
}
