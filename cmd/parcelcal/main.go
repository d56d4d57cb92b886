// parcelcal scrapes retailer order pages and publishes the delivery
// estimates as an iCalendar file.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"github.com/parcelcal/parcelcal/internal/adapters/driven/calendar/ics"
	"github.com/parcelcal/parcelcal/internal/adapters/driven/config/file"
	"github.com/parcelcal/parcelcal/internal/adapters/driven/sources/webstore"
	"github.com/parcelcal/parcelcal/internal/adapters/driven/storage/sqlite"
	"github.com/parcelcal/parcelcal/internal/adapters/driving/cli"
	"github.com/parcelcal/parcelcal/internal/core/domain"
	"github.com/parcelcal/parcelcal/internal/core/ports/driven"
	"github.com/parcelcal/parcelcal/internal/core/services"
	"github.com/parcelcal/parcelcal/internal/logx"
)

func main() {
	// Credentials may live in a .env next to the binary instead of the
	// config file. Missing file is fine.
	_ = godotenv.Load()

	cli.SetInitializer(buildServices)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildServices wires the full graph once the persistent flags are
// parsed. Runs before every command body.
func buildServices(opts cli.InitOptions) error {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	log := logx.NewSlogAdapter(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	configStore, err := file.NewStore(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg := configStore.Config()
	if opts.Output != "" {
		cfg.Output = opts.Output
	}
	if opts.IntervalHours > 0 {
		cfg.IntervalHours = opts.IntervalHours
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}

	sources, err := buildSources(cfg, log)
	if err != nil {
		return err
	}

	tracker := services.NewAggregator(
		sources,
		ics.NewSerializer(),
		ics.NewWriter(cfg.Output),
		time.Duration(cfg.SourceTimeoutMinutes)*time.Minute,
		log,
	)

	scheduler := services.NewScheduler(
		domain.SchedulerConfig{
			Enabled:  true,
			Interval: time.Duration(cfg.IntervalHours) * time.Hour,
		},
		store.SchedulerStore(),
		tracker,
		log,
	)

	cli.Setup(cli.Services{
		Tracker:     tracker,
		Scheduler:   scheduler,
		ConfigStore: configStore,
		OutputPath:  cfg.Output,
		OnConfigChange: func(newCfg file.Config) {
			rebuilt, err := buildSources(newCfg, log)
			if err != nil {
				log.Warn("config change ignored: rebuilding sources failed", logx.Err(err))
				return
			}
			tracker.SetSources(rebuilt)
			log.Info("sources reloaded", logx.Int("sources", len(rebuilt)))
		},
		Logger: log,
	})
	return nil
}

// buildSources constructs one webstore source per configured retailer.
// Sources without a credential pair are skipped with a warning so one
// unconfigured retailer never blocks the rest.
func buildSources(cfg file.Config, log logx.Logger) ([]driven.Source, error) {
	names := make([]string, 0, len(cfg.Sources))
	for name := range cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var sources []driven.Source
	for _, name := range names {
		sc := cfg.Sources[name]
		if !sc.HasCredentials() {
			log.Warn("skipping source: no credentials configured", logx.String("source", name))
			continue
		}

		src, err := webstore.New(webstore.Config{
			Name:       name,
			BaseURL:    sc.BaseURL,
			Email:      sc.Email,
			Password:   sc.Password,
			TOTPSecret: sc.TOTPSecret,
			MaxPages:   sc.MaxPages,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("configuring source %s: %w", name, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}
