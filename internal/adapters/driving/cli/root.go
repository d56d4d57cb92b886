// Package cli wires the cobra command tree. Services are injected by
// main via Setup before Execute runs.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/parcelcal/parcelcal/internal/adapters/driven/config/file"
	"github.com/parcelcal/parcelcal/internal/core/ports/driving"
	"github.com/parcelcal/parcelcal/internal/logx"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	flagConfig   string
	flagVerbose  bool
	flagOutput   string
	flagInterval int
)

// Injected services.
var (
	tracker        driving.Tracker
	scheduler      driving.SchedulerService
	configStore    *file.Store
	outputPath     string
	onConfigChange func(file.Config)
	log            logx.Logger = logx.Nop()
)

// InitOptions carries the parsed persistent flags to the service-graph
// builder. Output and IntervalHours override the config file when set.
type InitOptions struct {
	ConfigPath    string
	Verbose       bool
	Output        string
	IntervalHours int
}

// initServices is supplied by main: it builds the service graph once
// the persistent flags are parsed, so flags take effect before any
// command body runs.
var initServices func(opts InitOptions) error

var rootCmd = &cobra.Command{
	Use:   "parcelcal",
	Short: "Turn retailer order pages into a delivery calendar",
	Long: `parcelcal logs into configured retailer storefronts, scrapes the
order-history pages, normalises each delivery estimate into a concrete
date or date-time window, and writes the result as an iCalendar file
your calendar app can subscribe to.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if initServices == nil {
			return nil
		}
		return initServices(InitOptions{
			ConfigPath:    flagConfig,
			Verbose:       flagVerbose,
			Output:        flagOutput,
			IntervalHours: flagInterval,
		})
	},
}

// Services bundles everything the commands need.
type Services struct {
	Tracker     driving.Tracker
	Scheduler   driving.SchedulerService
	ConfigStore *file.Store

	// OutputPath is the effective calendar location after flag overrides.
	OutputPath string

	// OnConfigChange is invoked by the daemon when the watched config file
	// reloads, so the source set can be rebuilt without a restart.
	OnConfigChange func(file.Config)

	Logger logx.Logger
}

// Setup injects the service graph. Called by initServices once the
// persistent flags are known.
func Setup(s Services) {
	tracker = s.Tracker
	scheduler = s.Scheduler
	configStore = s.ConfigStore
	outputPath = s.OutputPath
	onConfigChange = s.OnConfigChange
	if s.Logger != nil {
		log = s.Logger
	}
}

// SetInitializer registers the service-graph builder run before every
// command.
func SetInitializer(fn func(opts InitOptions) error) {
	initServices = fn
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config file (default ~/.parcelcal/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "calendar file location (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagInterval, "interval", 0, "daemon re-run cadence in hours (overrides config)")
}
