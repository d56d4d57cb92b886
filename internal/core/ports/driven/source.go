package driven

import (
	"context"

	"github.com/parcelcal/parcelcal/internal/core/domain"
)

// Source fetches raw delivery statuses from one retailer.
// Each retailer adapter (webstore, test doubles, ...) implements this
// interface; the aggregator depends on nothing else.
type Source interface {
	// Name returns the retailer identifier used for provenance and ids.
	Name() string

	// Authenticate establishes a session. One attempt per run, no retry;
	// an error causes the aggregator to skip this source and continue
	// with the others.
	Authenticate(ctx context.Context) error

	// Statuses streams the scraped shipments. The adapter pages through
	// result lists internally and stops at its page ceiling or when no
	// further page exists. Both channels close when the sequence ends;
	// callers must drain them fully. Statuses already produced before a
	// mid-pagination error are valid.
	Statuses(ctx context.Context) (<-chan domain.RawStatus, <-chan error)

	// Release tears down the session. Idempotent; invoked exactly once per
	// Authenticate attempt regardless of downstream success or failure.
	Release() error
}
