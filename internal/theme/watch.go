package theme

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/codefionn/bbqterm/internal/consts"
	"github.com/codefionn/bbqterm/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads the theme at path whenever it changes and passes the result
// to fn. Bursts of events are coalesced. The parent directory is watched so
// editors that replace the file are picked up. Watch blocks until ctx is
// done and then returns nil.
func Watch(ctx context.Context, path string, fn func(Theme, error)) error {
	return watch(ctx, path, consts.ThemeReloadDebounce, fn)
}

func watch(ctx context.Context, path string, debounce time.Duration, fn func(Theme, error)) error {
	if path == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("theme path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create theme watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		// No config directory yet, nothing to follow.
		logger.Global().Debug("theme watcher disabled for %s: %v", abs, err)
		<-ctx.Done()
		return nil
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			t, err := Load(abs)
			if err != nil {
				logger.Global().Warn("theme reload failed: %v", err)
			} else {
				logger.Global().Info("theme reloaded from %s", abs)
			}
			fn(t, err)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Global().Error("theme watcher error: %v", err)
		}
	}
}
