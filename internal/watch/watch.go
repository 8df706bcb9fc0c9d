// Package watch re-runs a callback when files in a set of directories change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long a burst of events must be quiet before the
// callback runs.
const DefaultDelay = 200 * time.Millisecond

// Run calls fn once, then again after every burst of changes in dirs,
// until ctx is done. fn always runs on the calling goroutine.
func Run(ctx context.Context, dirs []string, delay time.Duration, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	for _, dir := range dirs {
		slog.Debug("adding path to FS watcher", slog.String("path", dir))
		if err := w.Add(dir); err != nil {
			err := errors.Join(err, w.Close())
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	defer w.Close()

	fn()
	timer := time.NewTimer(delay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 || ignored(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			timer.Reset(delay)
		case <-timer.C:
			fn()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

// ignored skips the temporary files of atomic writes.
func ignored(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".tmp-")
}
