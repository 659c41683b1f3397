package role

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"Audiotheque/logger"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events an editor produces on save.
const reloadDebounce = 200 * time.Millisecond

// Watch loads path once and then reloads it whenever it changes, until ctx
// is cancelled. The parent directory is watched so that editors replacing
// the file by rename are picked up too.
func (r *Resolver) Watch(ctx context.Context, path string) error {
	if err := r.Reload(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create roles watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch roles dir: %w", err)
	}

	target := filepath.Clean(path)
	go func() {
		defer watcher.Close()

		var pending <-chan time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					pending = time.After(reloadDebounce)
				}
			case <-pending:
				pending = nil
				if err := r.Reload(path); err != nil {
					logger.Warn("Roles file reload failed, keeping previous mapping",
						logger.String("path", path), logger.ErrorField(err))
					continue
				}
				logger.Info("Roles file reloaded", logger.String("path", path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Roles watcher error", logger.ErrorField(err))
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
