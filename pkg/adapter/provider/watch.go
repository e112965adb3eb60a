package provider

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/damianoneill/go-appconfig/pkg/domain/logging"
)

var errWatcherClosed = errors.New("file watcher closed")

// watchFile calls onChange for every write, create or rename of path. The
// parent directory is watched so that atomic replacements and files that
// do not exist yet are seen. It blocks until ctx is done.
func watchFile(ctx context.Context, path string, logger logging.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return errWatcherClosed
			}
			if eventMatchesFile(event, path) {
				logger.Debug("settings file changed", logging.Fields{"path": path, "op": event.Op.String()})
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errWatcherClosed
			}
			logger.Error("file watcher error", logging.Fields{"path": path, "error": err})
		}
	}
}

func eventMatchesFile(event fsnotify.Event, target string) bool {
	if event.Name == "" || filepath.Clean(event.Name) != filepath.Clean(target) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
