package services

import (
	"context"
	"sync"
	"time"

	"github.com/parcelcal/parcelcal/internal/core/domain"
	"github.com/parcelcal/parcelcal/internal/core/ports/driven"
	"github.com/parcelcal/parcelcal/internal/core/ports/driving"
	"github.com/parcelcal/parcelcal/internal/logx"
)

// Ensure Scheduler implements the interface.
var _ driving.SchedulerService = (*Scheduler)(nil)

// historyKeep bounds the run-result history retained per task.
const historyKeep = 100

// tickInterval is how often the loop checks for due tasks.
const tickInterval = 1 * time.Minute

// Scheduler re-runs the delivery pipeline on the configured cadence.
// Task state and run history persist across restarts via the store, so a
// restarted daemon does not immediately re-scrape every retailer.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	tracker driving.Tracker
	log     logx.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	tracker driving.Tracker,
	log logx.Logger,
) *Scheduler {
	if log == nil {
		log = logx.Nop()
	}
	return &Scheduler{
		config:  config,
		store:   store,
		tracker: tracker,
		log:     log,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.ensureTask(ctx); err != nil {
		s.log.Error("failed to initialise scheduled task", logx.Err(err))
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for a running sync to complete
	s.wg.Wait()
	return nil
}

// ensureTask creates or updates the delivery-sync task in the store.
func (s *Scheduler) ensureTask(ctx context.Context) error {
	task, err := s.store.GetTask(ctx, domain.TaskIDDeliverySync)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       domain.TaskIDDeliverySync,
			Name:     "Delivery Sync",
			Interval: s.config.Interval,
			Enabled:  s.config.Enabled,
			// Run immediately on first start
			NextRun: time.Now(),
		}
	} else {
		if task.Interval != s.config.Interval {
			task.Interval = s.config.Interval
			task.NextRun = time.Now().Add(s.config.Interval)
		}
		task.Enabled = s.config.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		s.log.Error("failed to list scheduled tasks", logx.Err(err))
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task asynchronously.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		s.log.Info("scheduled run starting", logx.String("task", task.ID))
		stats, err := s.tracker.RunOnce(ctx)
		result.ItemsProcessed = stats.Orders

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
			s.log.Error("scheduled run failed, previous calendar retained", logx.Err(err))
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			s.log.Error("failed to save task state", logx.Err(saveErr))
		}
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			s.log.Error("failed to record run result", logx.Err(recordErr))
		}
		if pruneErr := s.store.PruneHistory(ctx, historyKeep); pruneErr != nil {
			s.log.Error("failed to prune run history", logx.Err(pruneErr))
		}
	}()
}
