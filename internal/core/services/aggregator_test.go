package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelcal/parcelcal/internal/core/domain"
	"github.com/parcelcal/parcelcal/internal/core/ports/driven"
)

// fakeSource is an in-memory driven.Source for pipeline tests.
type fakeSource struct {
	name     string
	statuses []domain.RawStatus
	authErr  error
	fetchErr error

	// delay is applied before emitting each status, to exercise merge
	// ordering and timeouts.
	delay time.Duration

	mu       sync.Mutex
	released int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Authenticate(_ context.Context) error { return f.authErr }

func (f *fakeSource) Statuses(ctx context.Context) (<-chan domain.RawStatus, <-chan error) {
	statusCh := make(chan domain.RawStatus)
	errCh := make(chan error, 1)
	go func() {
		defer close(statusCh)
		defer close(errCh)
		for _, rs := range f.statuses {
			if f.delay > 0 {
				select {
				case <-time.After(f.delay):
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
			select {
			case statusCh <- rs:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if f.fetchErr != nil {
			errCh <- f.fetchErr
		}
	}()
	return statusCh, errCh
}

func (f *fakeSource) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	return nil
}

func (f *fakeSource) releaseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// fakeSerializer records what it was asked to serialize.
type fakeSerializer struct {
	orders []domain.Order
	err    error
}

func (f *fakeSerializer) Serialize(orders []domain.Order, _ time.Time) ([]byte, error) {
	f.orders = orders
	return []byte("calendar"), f.err
}

// fakeStore records writes.
type fakeStore struct {
	writes int
	data   []byte
	err    error
}

func (f *fakeStore) Write(data []byte) error {
	f.writes++
	f.data = data
	return f.err
}

func (f *fakeStore) Path() string { return "/tmp/test.ics" }

func status(source, id, text string, items ...string) domain.RawStatus {
	return domain.RawStatus{
		OrderID:    id,
		Items:      items,
		StatusText: text,
		DetailLink: "https://example.test/order-details?id=" + id,
		Source:     source,
	}
}

func newTestAggregator(sources []driven.Source, ser *fakeSerializer, store *fakeStore) *Aggregator {
	agg := NewAggregator(sources, ser, store, 0, nil)
	agg.now = func() time.Time {
		return time.Date(2025, time.July, 9, 8, 0, 0, 0, time.UTC)
	}
	return agg
}

func TestAggregate_TwoSources(t *testing.T) {
	a := &fakeSource{name: "alpha", statuses: []domain.RawStatus{
		status("alpha", "A1", "Arriving tomorrow", "Desk lamp"),
		status("alpha", "A2", "Delivered 5 July", "Old lamp"),
	}}
	b := &fakeSource{name: "beta", statuses: []domain.RawStatus{
		status("beta", "B1", "Arriving today", "Bookshelf"),
		status("beta", "B2", "Delivered 1 July", "Old shelf"),
	}}
	ser := &fakeSerializer{}
	store := &fakeStore{}
	agg := newTestAggregator([]driven.Source{a, b}, ser, store)

	stats, err := agg.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Orders)
	assert.Equal(t, 2, stats.Excluded)
	require.Len(t, ser.orders, 2, "exactly two events reach the calendar")
	assert.Equal(t, "A1", ser.orders[0].ID)
	assert.Equal(t, "B1", ser.orders[1].ID)
	assert.Equal(t, "Desk lamp", ser.orders[0].Title)
	assert.Equal(t, 1, store.writes)
	assert.Equal(t, 1, a.releaseCount())
	assert.Equal(t, 1, b.releaseCount())
}

func TestSetSources_AppliesToNextRun(t *testing.T) {
	old := &fakeSource{name: "old", statuses: []domain.RawStatus{
		status("old", "O1", "Arriving today", "Stale"),
	}}
	agg := newTestAggregator([]driven.Source{old}, &fakeSerializer{}, &fakeStore{})

	replacement := &fakeSource{name: "new", statuses: []domain.RawStatus{
		status("new", "N1", "Arriving today", "Fresh"),
	}}
	agg.SetSources([]driven.Source{replacement})

	orders, _ := agg.Aggregate(context.Background())

	require.Len(t, orders, 1)
	assert.Equal(t, "N1", orders[0].ID)
	assert.Equal(t, 0, old.releaseCount())
}

func TestAggregate_MergePreservesSubmissionOrder(t *testing.T) {
	// The slow source is listed first; its orders must still come first.
	slow := &fakeSource{name: "slow", delay: 30 * time.Millisecond, statuses: []domain.RawStatus{
		status("slow", "S1", "Arriving tomorrow", "Kettle"),
	}}
	fast := &fakeSource{name: "fast", statuses: []domain.RawStatus{
		status("fast", "F1", "Arriving tomorrow", "Toaster"),
	}}
	agg := newTestAggregator([]driven.Source{slow, fast}, &fakeSerializer{}, &fakeStore{})

	orders, _ := agg.Aggregate(context.Background())

	require.Len(t, orders, 2)
	assert.Equal(t, "slow", orders[0].Source)
	assert.Equal(t, "fast", orders[1].Source)
}

func TestAggregate_AuthFailureSkipsSource(t *testing.T) {
	bad := &fakeSource{name: "bad", authErr: domain.ErrAuthFailed, statuses: []domain.RawStatus{
		status("bad", "X1", "Arriving today", "Never seen"),
	}}
	good := &fakeSource{name: "good", statuses: []domain.RawStatus{
		status("good", "G1", "Arriving today", "Chair"),
	}}
	agg := newTestAggregator([]driven.Source{bad, good}, &fakeSerializer{}, &fakeStore{})

	orders, stats := agg.Aggregate(context.Background())

	require.Len(t, orders, 1)
	assert.Equal(t, "G1", orders[0].ID)
	assert.Equal(t, 1, stats.SourcesSkipped)
	assert.Equal(t, 1, bad.releaseCount(), "release runs even when auth fails")
}

func TestAggregate_CountsExcludedAndNoMatch(t *testing.T) {
	src := &fakeSource{name: "shop", statuses: []domain.RawStatus{
		status("shop", "D1", "Delivered 5 July", "Old order"),
		status("shop", "U1", "Preparing for dispatch", "Mystery box"),
		status("shop", "P1", "Arriving tomorrow", "Plant pot"),
	}}
	agg := newTestAggregator([]driven.Source{src}, &fakeSerializer{}, &fakeStore{})

	orders, stats := agg.Aggregate(context.Background())

	require.Len(t, orders, 1)
	assert.Equal(t, 1, stats.Orders)
	assert.Equal(t, 1, stats.Excluded)
	assert.Equal(t, 1, stats.NoMatch)
}

func TestAggregate_MultiItemShipmentSplits(t *testing.T) {
	src := &fakeSource{name: "shop", statuses: []domain.RawStatus{
		status("shop", "M1", "Arriving tomorrow 10am - 2pm", "Keyboard", "Mouse"),
	}}
	agg := newTestAggregator([]driven.Source{src}, &fakeSerializer{}, &fakeStore{})

	orders, stats := agg.Aggregate(context.Background())

	require.Len(t, orders, 2)
	assert.Equal(t, 2, stats.Orders)
	assert.Equal(t, "M1-1", orders[0].ID)
	assert.Equal(t, "M1-2", orders[1].ID)
	assert.Equal(t, "Keyboard", orders[0].Title)
	assert.Equal(t, "Mouse", orders[1].Title)
	assert.Equal(t, orders[0].Interval, orders[1].Interval)
	assert.True(t, orders[0].Interval.HasTimeOfDay)
}

func TestAggregate_SynthesizesIDWhenPageHasNone(t *testing.T) {
	src := &fakeSource{name: "shop", statuses: []domain.RawStatus{
		status("shop", "", "Arriving today"),
	}}
	agg := newTestAggregator([]driven.Source{src}, &fakeSerializer{}, &fakeStore{})

	orders, _ := agg.Aggregate(context.Background())

	require.Len(t, orders, 1)
	assert.Equal(t, "shop-1", orders[0].ID)
	assert.Equal(t, "Unknown item", orders[0].Title)
}

func TestAggregate_FetchErrorKeepsPartialResults(t *testing.T) {
	src := &fakeSource{
		name:     "flaky",
		fetchErr: errors.New("page 2 truncated"),
		statuses: []domain.RawStatus{
			status("flaky", "F1", "Arriving tomorrow", "Blender"),
		},
	}
	agg := newTestAggregator([]driven.Source{src}, &fakeSerializer{}, &fakeStore{})

	orders, stats := agg.Aggregate(context.Background())

	require.Len(t, orders, 1)
	assert.Equal(t, 1, stats.SourcesFailed)
	assert.Equal(t, 1, src.releaseCount())
}

func TestAggregate_TimeoutAbandonsSlowSource(t *testing.T) {
	slow := &fakeSource{name: "slow", delay: time.Second, statuses: []domain.RawStatus{
		status("slow", "S1", "Arriving today", "Lost item"),
	}}
	fast := &fakeSource{name: "fast", statuses: []domain.RawStatus{
		status("fast", "F1", "Arriving today", "Saved item"),
	}}

	agg := NewAggregator([]driven.Source{slow, fast}, &fakeSerializer{}, &fakeStore{}, 50*time.Millisecond, nil)
	agg.now = func() time.Time {
		return time.Date(2025, time.July, 9, 8, 0, 0, 0, time.UTC)
	}

	orders, stats := agg.Aggregate(context.Background())

	require.Len(t, orders, 1)
	assert.Equal(t, "F1", orders[0].ID)
	assert.Equal(t, 1, stats.SourcesFailed)
	assert.Equal(t, 1, slow.releaseCount())
}

func TestRunOnce_WritesCalendar(t *testing.T) {
	src := &fakeSource{name: "shop", statuses: []domain.RawStatus{
		status("shop", "A1", "Arriving tomorrow", "Desk"),
	}}
	ser := &fakeSerializer{}
	store := &fakeStore{}
	agg := newTestAggregator([]driven.Source{src}, ser, store)

	stats, err := agg.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Orders)
	assert.Equal(t, 1, store.writes)
	assert.Equal(t, []byte("calendar"), store.data)
	require.Len(t, ser.orders, 1)
}

func TestRunOnce_NoOrdersKeepsPreviousCalendar(t *testing.T) {
	src := &fakeSource{name: "shop", statuses: []domain.RawStatus{
		status("shop", "D1", "Delivered 5 July", "Done"),
	}}
	store := &fakeStore{}
	agg := newTestAggregator([]driven.Source{src}, &fakeSerializer{}, store)

	stats, err := agg.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Orders)
	assert.Equal(t, 0, store.writes, "empty runs must not clobber the calendar file")
}

func TestRunOnce_WriteFailureReported(t *testing.T) {
	src := &fakeSource{name: "shop", statuses: []domain.RawStatus{
		status("shop", "A1", "Arriving tomorrow", "Desk"),
	}}
	store := &fakeStore{err: errors.New("disk full")}
	agg := newTestAggregator([]driven.Source{src}, &fakeSerializer{}, store)

	_, err := agg.RunOnce(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "write calendar")
}

func TestRunOnce_RejectsConcurrentRuns(t *testing.T) {
	slow := &fakeSource{name: "slow", delay: 100 * time.Millisecond, statuses: []domain.RawStatus{
		status("slow", "S1", "Arriving today", "Thing"),
	}}
	agg := newTestAggregator([]driven.Source{slow}, &fakeSerializer{}, &fakeStore{})

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		_, _ = agg.RunOnce(context.Background())
		close(done)
	}()

	<-started
	time.Sleep(20 * time.Millisecond)
	_, err := agg.RunOnce(context.Background())
	assert.ErrorIs(t, err, domain.ErrRunInProgress)
	<-done
}
