package ics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parcelcal/parcelcal/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.CalendarStore = (*Writer)(nil)

// Writer persists calendar documents at a fixed path. The document is
// written to a temporary file in the same directory and renamed over the
// target, so a failed or partial run leaves the last good file intact.
type Writer struct {
	path string
}

// NewWriter creates a writer for the given output path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the output location.
func (w *Writer) Path() string {
	return w.path
}

// Write atomically replaces the calendar file with data.
func (w *Writer) Write(data []byte) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing calendar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing calendar file: %w", err)
	}
	return nil
}
