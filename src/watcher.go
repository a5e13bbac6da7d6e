package main

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const WATCH_DEBOUNCE = 2 * time.Second

// watchMedia watches root and its subdirectories and calls rescan once the
// tree has been quiet for debounce. It returns when ctx is done.
func watchMedia(ctx context.Context, root string, debounce time.Duration, rescan func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create media watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		return err
	}
	logger.Info().Str("root", root).Msg("Watching media root")

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isHidden(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if err := addTree(watcher, event.Name); err != nil {
					logger.Debug().Err(err).Str("path", event.Name).Msg("Could not watch new path")
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("Media watcher error")
		case <-timer.C:
			logger.Debug().Msg("Media changed, requesting rescan")
			rescan()
		}
	}
}

// addTree adds every directory under path. Plain files are ignored.
func addTree(watcher *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && isHidden(p) {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
