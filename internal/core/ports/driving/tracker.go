package driving

import (
	"context"

	"github.com/parcelcal/parcelcal/internal/core/domain"
)

// RunStats counts what happened during one pipeline run.
type RunStats struct {
	// Orders is the number of calendar-bound orders emitted.
	Orders int

	// Excluded counts already-delivered statuses that never become events.
	Excluded int

	// NoMatch counts status lines no parser rule recognised.
	NoMatch int

	// SourcesSkipped counts sources skipped for auth or timeout reasons.
	SourcesSkipped int

	// SourcesFailed counts sources that errored mid-fetch. Orders produced
	// before the failure are kept.
	SourcesFailed int
}

// Tracker drives one full scrape-parse-serialize run.
type Tracker interface {
	// Aggregate collects orders from every configured source, in submission
	// order. Per-source failures are absorbed into the stats.
	Aggregate(ctx context.Context) ([]domain.Order, RunStats)

	// RunOnce aggregates and writes the calendar file. Returns the stats and
	// a serialization error, if any; the previous file survives failures.
	RunOnce(ctx context.Context) (RunStats, error)
}
