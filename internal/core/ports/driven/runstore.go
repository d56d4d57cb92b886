package driven

import (
	"context"

	"github.com/parcelcal/parcelcal/internal/core/domain"
)

// SchedulerStore persists scheduled task state and execution history.
// Orders themselves are never persisted; only when the pipeline ran and
// how it went.
type SchedulerStore interface {
	// GetTask retrieves a task by ID. Returns nil and no error when the
	// task does not exist.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns all scheduled tasks.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask creates or updates a task.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// RecordResult logs a task execution result.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns recent results, most recent first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps only the most recent 'keep' results per task.
	PruneHistory(ctx context.Context, keep int) error

	// Close releases the underlying storage.
	Close() error
}
