// Package watcher reloads the project when its file changes on disk.
// The parent directory is watched rather than the file itself so that
// editors that save via rename-and-replace keep triggering events.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/panelwise/panelwright/pkg/logging"
)

// ChangeEvent signals that the project file was written or replaced.
type ChangeEvent struct {
	Path      string
	Timestamp time.Time
}

// ProjectWatcher watches one project file for changes.
type ProjectWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan ChangeEvent
}

// NewProjectWatcher creates a watcher for the given project file.
func NewProjectWatcher(path string) (*ProjectWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &ProjectWatcher{
		watcher: watcher,
		path:    abs,
		events:  make(chan ChangeEvent, 16),
	}, nil
}

// Start begins watching. Events stop when the context is cancelled.
func (w *ProjectWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	logging.Info("watching project file", "path", w.path)

	go w.processEvents(ctx)
	return nil
}

// processEvents filters directory events down to the project file.
func (w *ProjectWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			close(w.events)
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.events <- ChangeEvent{Path: w.path, Timestamp: time.Now()}:
			default:
				// Channel full; a reload is already pending
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (w *ProjectWatcher) Events() <-chan ChangeEvent {
	return w.events
}

// Stop stops the watcher.
func (w *ProjectWatcher) Stop() error {
	return w.watcher.Close()
}
