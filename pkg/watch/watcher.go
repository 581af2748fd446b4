// Package watch re-runs table extraction when watched input files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/fsnotify.v1"
)

// DefaultDebounce is the quiet period after the last write to a file before
// its change is reported.
const DefaultDebounce = 300 * time.Millisecond

// Config holds configuration for a Watcher.
type Config struct {
	// Paths are the files to watch.
	Paths []string

	// Debounce is the quiet period before reporting a change.
	Debounce time.Duration

	// OnChange is called with the path (as given in Paths) of every changed
	// file. Calls are made from the watch loop, one at a time.
	OnChange func(path string)

	// OnError receives watcher errors. Nil ignores them.
	OnError func(err error)
}

// Watcher reports changes to a fixed set of files.
type Watcher struct {
	targets  map[string]string // cleaned absolute path -> path as given
	dirs     []string
	debounce time.Duration
	onChange func(string)
	onError  func(error)
}

// New creates a Watcher for cfg.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("OnChange callback is required")
	}

	w := &Watcher{
		targets:  make(map[string]string, len(cfg.Paths)),
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
		onError:  cfg.OnError,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.onError == nil {
		w.onError = func(error) {}
	}

	seen := make(map[string]bool)
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.targets[abs] = p

		// Editors often replace files with a rename, which drops a watch
		// on the file itself, so the parent directory is watched instead.
		dir := filepath.Dir(abs)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	sort.Strings(w.dirs)
	return w, nil
}

// Run watches until ctx is canceled and returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if path, ok := w.targets[abs]; ok {
				pending[path] = time.Now()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.onError(err)

		case now := <-ticker.C:
			w.flush(pending, now)
		}
	}
}

// flush reports every pending change that has been quiet for the debounce
// period, in path order.
func (w *Watcher) flush(pending map[string]time.Time, now time.Time) {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	for _, path := range ready {
		delete(pending, path)
		w.onChange(path)
	}
}
