package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchSettle is how long a burst of file events must go quiet before the
// script is evaluated again.
const watchSettle = 100 * time.Millisecond

// Watch evaluates the script at path, then again after every change until
// ctx is canceled. Evaluation errors are printed, not returned.
func (a *App) Watch(ctx context.Context, path, saveAs string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file on save, so watch its directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	eval := func() {
		if err := a.EvalFile(ctx, path, saveAs, ""); err != nil {
			a.logger.Warn("watch: evaluation failed", "path", path, "err", err)
		}
	}
	eval()

	var settle <-chan time.Time
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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				settle = time.After(watchSettle)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watch: watcher error", "err", err)
		case <-settle:
			settle = nil
			eval()
		}
	}
}
