package driving

import "context"

// SchedulerService controls the background run loop.
type SchedulerService interface {
	// Start begins the scheduler loop and blocks until the context is
	// cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully shuts down, waiting for a running task to finish.
	Stop() error
}
