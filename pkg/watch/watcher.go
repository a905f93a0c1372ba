// Package watch re-runs extraction when JavaScript or TypeScript modules
// under a directory change.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/panbanda/esmdeps/pkg/config"
	"github.com/panbanda/esmdeps/pkg/parser"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// Handler receives one batch of settled changes. changed holds files that
// were written or created, removed those that were deleted or renamed
// away. Both are sorted.
type Handler func(ctx context.Context, changed, removed []string)

// Filter decides whether an existing file is worth reporting.
type Filter func(path string) bool

type change struct {
	at      time.Time
	removed bool
}

// Watcher monitors a directory tree and reports debounced module changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	path      string
	filter    Filter
	handler   Handler
	out       io.Writer
	mu        sync.Mutex
	pending   map[string]change
}

// NewWatcher creates a watcher for the tree at path.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		path:      path,
		out:       os.Stdout,
		pending:   make(map[string]change),
	}, nil
}

// SetHandler sets the function called with each batch of changes.
func (w *Watcher) SetHandler(h Handler) {
	w.handler = h
}

// SetFilter narrows which written or created files are reported. Removed
// files only go through the path checks since they can no longer be read.
func (w *Watcher) SetFilter(f Filter) {
	w.filter = f
}

// SetOutput redirects status messages. nil silences them.
func (w *Watcher) SetOutput(out io.Writer) {
	if out == nil {
		out = io.Discard
	}
	w.out = out
}

// Start watches until ctx is done or the watcher is stopped.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.path); err != nil {
		return err
	}

	color.New(color.FgCyan).Fprintf(w.out, "Watching for changes in %s...\n", w.path)
	color.New(color.FgCyan).Fprintln(w.out, "Press Ctrl+C to stop")
	fmt.Fprintln(w.out)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			color.New(color.FgRed).Fprintf(w.out, "Watch error: %v\n", err)
		}
	}
}

// addTree registers root and every non-excluded directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.excludedDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) excludedDir(name string) bool {
	for _, excluded := range w.config.Exclude.Dirs {
		if name == excluded {
			return true
		}
	}
	return false
}

// watchable holds the checks that need only the path.
func (w *Watcher) watchable(path string) bool {
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return false
	}
	rel, err := filepath.Rel(w.path, path)
	if err != nil {
		rel = path
	}
	return !w.config.ShouldExclude(rel)
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		if !w.watchable(path) {
			return
		}
		w.mark(path, true)

	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if event.Op&fsnotify.Create != 0 && !w.excludedDir(info.Name()) {
				_ = w.addTree(path)
			}
			return
		}
		if !w.watchable(path) {
			return
		}
		if w.filter != nil && !w.filter(path) {
			return
		}
		w.mark(path, false)
	}
}

func (w *Watcher) mark(path string, removed bool) {
	w.mu.Lock()
	w.pending[path] = change{at: time.Now(), removed: removed}
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, removed := w.takeReady(time.Now())
			if len(changed)+len(removed) > 0 {
				w.dispatch(ctx, changed, removed)
			}
		}
	}
}

// takeReady removes and returns the files that have been quiet for the
// debounce period.
func (w *Watcher) takeReady(now time.Time) (changed, removed []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, c := range w.pending {
		if now.Sub(c.at) < w.debounce {
			continue
		}
		delete(w.pending, path)
		if c.removed {
			removed = append(removed, path)
		} else {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	sort.Strings(removed)
	return changed, removed
}

func (w *Watcher) dispatch(ctx context.Context, changed, removed []string) {
	for _, path := range changed {
		color.New(color.FgYellow).Fprintf(w.out, "\nFile changed: %s\n", w.rel(path))
	}
	for _, path := range removed {
		color.New(color.FgYellow).Fprintf(w.out, "\nFile removed: %s\n", w.rel(path))
	}
	fmt.Fprintln(w.out, strings.Repeat("-", 40))

	if w.handler != nil {
		w.handler(ctx, changed, removed)
	}
	fmt.Fprintln(w.out)
}

func (w *Watcher) rel(path string) string {
	relPath, err := filepath.Rel(w.path, path)
	if err != nil {
		return path
	}
	return relPath
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories currently registered.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
