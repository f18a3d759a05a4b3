// Package watcher reports changes to a single file.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/tenkoh/awsswitch/pkg/logger"
)

// changeOps are the events that can alter the file's content. Atomic
// writers replace the file through a rename onto it, which shows up as
// Create on the target.
const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watch calls onChange whenever path is written, replaced or removed, until
// ctx is done. The parent directory is watched so that replacing the file
// does not end the watch.
func Watch(ctx context.Context, path string, onChange func(), log *slog.Logger) error {
	log = logger.WithComponent(log, "watcher")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&changeOps == 0 {
				continue
			}
			log.Debug("Credentials file changed", "path", path, "op", event.Op.String())
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher error: %w", err)
		}
	}
}
