package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// WatchDebounce is how long the watcher waits after the last change
// before analyzing the changed files.
const WatchDebounce = 2 * time.Second

// WatchMaxWait bounds how long a change may stay pending. A log written
// more often than WatchDebounce is still analyzed at least this often.
const WatchMaxWait = 5 * WatchDebounce

type watchTiming struct {
	debounce time.Duration
	maxWait  time.Duration
}

// next returns how long to wait for more changes when the oldest pending
// change arrived at first.
func (t watchTiming) next(first time.Time) time.Duration {
	left := t.maxWait - time.Since(first)
	if left < t.debounce {
		return max(left, 0)
	}
	return t.debounce
}

// stamp identifies one version of a file.
type stamp struct {
	modTime time.Time
	size    int64
}

// WatchLogs monitors dir for new or changed log files and analyzes them
// with RunFiles, calling onSummary with the result of every run. Changes
// are analyzed once WatchDebounce passes without another one, or once the
// oldest has waited WatchMaxWait. Files present when watching starts are
// not analyzed. Blocks until ctx is cancelled.
func WatchLogs(ctx context.Context, dir string, opts Options, onSummary func(*Summary)) error {
	return watchLogs(ctx, dir, opts, onSummary, watchTiming{debounce: WatchDebounce, maxWait: WatchMaxWait})
}

func watchLogs(ctx context.Context, dir string, opts Options, onSummary func(*Summary), timing watchTiming) error {
	opts.defaults()
	log := opts.Logger

	patterns, err := loadIgnore(dir)
	if err != nil {
		return err
	}
	matcher := newMatcher(patterns...)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	seen := make(map[string]stamp)
	if err := watchTree(watcher, dir, matcher, seen); err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	pending := make(map[string]bool)
	var first time.Time
	timer := time.NewTimer(timing.debounce)
	timer.Stop()

	log.Info("Watching for new logs", "dir", dir, "files", len(seen))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			rel, err := filepath.Rel(dir, event.Name)
			if err != nil || matcher.Match(splitPath(rel), false) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if err := watchTree(watcher, event.Name, nil, nil); err != nil {
					log.Warn("Cannot watch directory", "path", event.Name, "error", err)
				}
				continue
			}
			if len(pending) == 0 {
				first = time.Now()
			}
			pending[event.Name] = true
			timer.Reset(timing.next(first))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("Watch error", "error", err)

		case <-timer.C:
			files := changedFiles(dir, pending, seen)
			clear(pending)
			first = time.Time{}
			if len(files) == 0 {
				continue
			}

			log.Info("Analyzing changed logs", "files", len(files))
			summary, err := RunFiles(ctx, files, opts)
			if errors.Is(err, context.Canceled) {
				return err
			}
			if err != nil {
				log.Error("Analysis failed", "error", err)
				continue
			}
			if onSummary != nil {
				onSummary(summary)
			}
		}
	}
}

// watchTree adds root and its subdirectories to the watcher. With a
// non-nil seen it records the stamp of every file found.
func watchTree(w *fsnotify.Watcher, root string, matcher gitignore.Matcher, seen map[string]stamp) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if matcher != nil && path != root {
			rel, err := filepath.Rel(root, path)
			if err == nil && matcher.Match(splitPath(rel), d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if seen != nil {
			if info, err := d.Info(); err == nil {
				seen[path] = stamp{modTime: info.ModTime(), size: info.Size()}
			}
		}
		return nil
	})
}

// changedFiles returns the pending files whose stamp differs from the
// last one analyzed, and records their new stamps.
func changedFiles(dir string, pending map[string]bool, seen map[string]stamp) []LogFile {
	var files []LogFile
	for path := range pending {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		st := stamp{modTime: info.ModTime(), size: info.Size()}
		if prev, ok := seen[path]; ok && prev.modTime.Equal(st.modTime) && prev.size == st.size {
			continue
		}
		seen[path] = st

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		files = append(files, LogFile{Path: path, RelPath: rel, Size: info.Size()})
	}
	slices.SortFunc(files, func(a, b LogFile) int { return strings.Compare(a.RelPath, b.RelPath) })
	return files
}
