package config

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/edustack/campus-core/pkg/logger"
)

// FileWatcher watches a single file and invokes a callback on every
// write. It is used to hot-reload the policy rule table without a
// restart.
type FileWatcher struct {
	path     string
	onChange func(path string)
	logger   logger.Logger
}

func NewFileWatcher(path string, onChange func(path string), log logger.Logger) *FileWatcher {
	return &FileWatcher{
		path:     path,
		onChange: onChange,
		logger:   log,
	}
}

// Start blocks until ctx is cancelled, invoking the callback on writes.
func (w *FileWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	w.logger.Info("File watcher started", "path", w.path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				w.logger.Info("Watched file changed, reloading", "file", event.Name)
				w.onChange(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", "path", w.path, "error", err)

		case <-ctx.Done():
			w.logger.Info("File watcher stopped", "path", w.path)
			return nil
		}
	}
}
