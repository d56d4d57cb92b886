package driven

import (
	"time"

	"github.com/parcelcal/parcelcal/internal/core/domain"
)

// CalendarSerializer turns an ordered sequence of orders into one calendar
// document. Output is deterministic given the same orders and stamp.
type CalendarSerializer interface {
	Serialize(orders []domain.Order, stamp time.Time) ([]byte, error)
}

// CalendarStore persists a serialized calendar document. Implementations
// must replace the previous document atomically: a failed write leaves the
// last good file intact.
type CalendarStore interface {
	// Write persists the document at the configured location.
	Write(data []byte) error

	// Path returns the output location.
	Path() string
}
