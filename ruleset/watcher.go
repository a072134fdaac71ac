package ruleset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period Watch waits for before reloading
const DefaultDebounce = 100 * time.Millisecond

// Watch reloads the definition whenever its file changes and blocks until
// ctx is cancelled. The parent directory is watched rather than the file so
// that editors which replace the file on save are still seen. Bursts of
// events within debounce collapse into one reload.
func (m *Manager) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(m.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", target, err)
	}

	m.logger.Info("watching rule definition", "path", target, "debounce_ms", debounce.Milliseconds())

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("rule watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			m.logger.Debug("rule definition changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			// Reload logs and counts its own failures; the old rules stay active.
			_ = m.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			m.logger.Error("rule watcher error", "error", err)
		}
	}
}
