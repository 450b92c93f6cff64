package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nhaumann/boardsync/internal/logging"
)

// Watch redeploys whenever the source tree changes. Events are debounced so an
// editor save burst triggers one deploy, and redeploys skip the auth step (the
// initial deploy before watching already ran it if wanted).
func (s *Service) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("run-watch: could not create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// NOTE: fsnotify does not recursively watch subdirectories
	err = filepath.Walk(s.cfg.SourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err = watcher.Add(path); err != nil {
				return fmt.Errorf("run-watch: could not add directory to watcher: %w", err)
			}
			logging.Debugf("Added directory to watcher: %s", path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	settle := time.NewTimer(s.cfg.WatchSettle)
	if !settle.Stop() {
		<-settle.C
	}

	logging.Infof("Watching '%s' for changes", s.cfg.SourceDir)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err = watcher.Add(event.Name); err != nil {
						return fmt.Errorf("run-watch: could not add directory to watcher: %w", err)
					}
				}
			}
			logging.Debugf("Source change: %s", event)
			settle.Reset(s.cfg.WatchSettle)

		case <-settle.C:
			if err = s.Deploy(ctx, DeployOptions{SkipAuth: true}); err != nil {
				logging.Error("Deploy failed, still watching", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			logging.Infof("FSNotify Error: %v", err)
		}
	}
}
