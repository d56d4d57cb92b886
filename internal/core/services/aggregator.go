package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parcelcal/parcelcal/internal/core/domain"
	"github.com/parcelcal/parcelcal/internal/core/ports/driven"
	"github.com/parcelcal/parcelcal/internal/core/ports/driving"
	"github.com/parcelcal/parcelcal/internal/logx"
	"github.com/parcelcal/parcelcal/internal/parse"
)

// Ensure Aggregator implements the interface.
var _ driving.Tracker = (*Aggregator)(nil)

// fallbackTitle names an order whose product could not be identified.
const fallbackTitle = "Unknown item"

// Aggregator runs the scrape-parse-serialize pipeline. Sources execute
// concurrently, each bounded by a per-source timeout and drained through
// its own goroutine; results merge in submission order, never completion
// order, so output is stable across runs.
type Aggregator struct {
	sources    []driven.Source
	serializer driven.CalendarSerializer
	store      driven.CalendarStore
	log        logx.Logger

	// sourceTimeout bounds one source's authenticate/fetch cycle.
	sourceTimeout time.Duration

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time

	mu      sync.Mutex
	running bool
}

// NewAggregator creates the pipeline service. A zero sourceTimeout disables
// the per-source deadline.
func NewAggregator(
	sources []driven.Source,
	serializer driven.CalendarSerializer,
	store driven.CalendarStore,
	sourceTimeout time.Duration,
	log logx.Logger,
) *Aggregator {
	if log == nil {
		log = logx.Nop()
	}
	return &Aggregator{
		sources:       sources,
		serializer:    serializer,
		store:         store,
		sourceTimeout: sourceTimeout,
		log:           log,
		now:           time.Now,
	}
}

// sourceResult is one source's contribution, merged after all complete.
type sourceResult struct {
	orders []domain.Order
	stats  driving.RunStats
}

// SetSources replaces the source set for subsequent runs. A run already
// in flight keeps the snapshot it started with.
func (a *Aggregator) SetSources(sources []driven.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sources = sources
}

// Aggregate collects orders from every configured source. Each source's
// authenticate/fetch/release cycle runs as an independent goroutine with a
// guaranteed Release on every exit path; the final sequence preserves
// source submission order, then within-source scrape order.
func (a *Aggregator) Aggregate(ctx context.Context) ([]domain.Order, driving.RunStats) {
	a.mu.Lock()
	sources := a.sources
	a.mu.Unlock()

	today := domain.DateOf(a.now())
	results := make([]sourceResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(slot int, src driven.Source) {
			defer wg.Done()
			results[slot] = a.collect(ctx, src, today)
		}(i, src)
	}
	wg.Wait()

	var orders []domain.Order
	var stats driving.RunStats
	for _, r := range results {
		orders = append(orders, r.orders...)
		stats.Orders += r.stats.Orders
		stats.Excluded += r.stats.Excluded
		stats.NoMatch += r.stats.NoMatch
		stats.SourcesSkipped += r.stats.SourcesSkipped
		stats.SourcesFailed += r.stats.SourcesFailed
	}
	return orders, stats
}

// collect drives one source: authenticate, drain, parse. Auth failure or
// timeout before any status arrives skips the source; a mid-fetch failure
// keeps the orders produced so far.
func (a *Aggregator) collect(ctx context.Context, src driven.Source, today time.Time) sourceResult {
	log := a.log.With(logx.String("source", src.Name()))

	if a.sourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.sourceTimeout)
		defer cancel()
	}

	defer func() {
		if err := src.Release(); err != nil {
			log.Warn("release failed", logx.Err(err))
		}
	}()

	var res sourceResult
	if err := src.Authenticate(ctx); err != nil {
		log.Warn("authentication failed, skipping source", logx.Err(err))
		res.stats.SourcesSkipped++
		return res
	}

	statusCh, errCh := src.Statuses(ctx)
	seq := 0
	for statusCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			log.Warn("source abandoned", logx.Err(fmt.Errorf("%w: %w", domain.ErrSourceTimeout, ctx.Err())))
			res.stats.SourcesFailed++
			return res

		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			log.Warn("fetch failed, keeping orders scraped so far", logx.Err(err))
			res.stats.SourcesFailed++

		case rs, ok := <-statusCh:
			if !ok {
				statusCh = nil
				continue
			}
			a.processStatus(rs, today, &res, &seq, log)
		}
	}
	return res
}

// processStatus parses one raw status and appends the resulting orders.
// A shipment spanning several line items emits one order per item, all
// sharing the parsed interval and detail link.
func (a *Aggregator) processStatus(
	rs domain.RawStatus,
	today time.Time,
	res *sourceResult,
	seq *int,
	log logx.Logger,
) {
	outcome := parse.Parse(rs.StatusText, today)
	switch outcome.Kind {
	case domain.KindExcluded:
		// Expected terminal state, counted but not warned.
		log.Debug("skipping delivered order", logx.String("status", rs.StatusText))
		res.stats.Excluded++
		return

	case domain.KindNoMatch:
		log.Warn("could not parse delivery status", logx.String("status", rs.StatusText))
		res.stats.NoMatch++
		return
	}

	*seq++
	base := rs.OrderID
	if base == "" {
		base = fmt.Sprintf("%s-%d", rs.Source, *seq)
	}

	items := rs.Items
	if len(items) == 0 {
		items = []string{fallbackTitle}
	}
	for i, title := range items {
		id := base
		if len(items) > 1 {
			id = fmt.Sprintf("%s-%d", base, i+1)
		}
		if title == "" {
			title = fallbackTitle
		}
		res.orders = append(res.orders, domain.Order{
			ID:         id,
			Title:      title,
			Interval:   outcome.Interval,
			DetailLink: rs.DetailLink,
			Source:     rs.Source,
			RawStatus:  rs.StatusText,
		})
		res.stats.Orders++
	}
	log.Debug("added order",
		logx.String("id", base),
		logx.Int("items", len(items)),
		logx.Time("start", outcome.Interval.Start))
}

// RunOnce aggregates and writes the calendar file. A serialization or write
// failure is fatal for this run only: the previous file is left untouched
// and the error reported for the next scheduled attempt.
func (a *Aggregator) RunOnce(ctx context.Context) (driving.RunStats, error) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return driving.RunStats{}, domain.ErrRunInProgress
	}
	a.running = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	orders, stats := a.Aggregate(ctx)
	if len(orders) == 0 {
		a.log.Warn("no pending deliveries found, keeping previous calendar")
		return stats, nil
	}

	data, err := a.serializer.Serialize(orders, a.now())
	if err != nil {
		return stats, fmt.Errorf("serialize calendar: %w", err)
	}
	if err := a.store.Write(data); err != nil {
		return stats, fmt.Errorf("write calendar: %w", err)
	}

	a.log.Info("calendar written",
		logx.String("path", a.store.Path()),
		logx.Int("orders", stats.Orders),
		logx.Int("excluded", stats.Excluded),
		logx.Int("unparsed", stats.NoMatch))
	return stats, nil
}
