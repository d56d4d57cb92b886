package file

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/parcelcal/parcelcal/internal/logx"
)

// Watch reloads the configuration whenever the file changes on disk, so
// the daemon picks up edited credentials or a new source before the next
// scheduled run without restarting. Blocks until the context is cancelled.
//
// The parent directory is watched rather than the file itself: editors
// that write-and-rename would otherwise drop the watch after one change.
func (s *Store) Watch(ctx context.Context, onChange func(Config), log logx.Logger) error {
	if log == nil {
		log = logx.Nop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.filePath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Load(); err != nil {
				log.Warn("config reload failed, keeping previous configuration", logx.Err(err))
				continue
			}
			log.Info("configuration reloaded", logx.String("path", s.filePath))
			if onChange != nil {
				onChange(s.Config())
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", logx.Err(err))
		}
	}
}
