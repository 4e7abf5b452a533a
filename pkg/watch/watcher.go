// Package watch reports batches of changed PHP files below a directory.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/cdensity/pkg/config"
	"github.com/panbanda/cdensity/pkg/parser"
)

// DefaultDebounce is how long a file must stay unchanged before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors a directory tree for PHP file changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	root      string
	debounce  time.Duration
	tick      time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher for root. Excluded directories are not watched.
func New(root string, cfg *config.Config, opts ...Option) (*Watcher, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		root:      abs,
		debounce:  DefaultDebounce,
		tick:      50 * time.Millisecond,
		logger:    slog.Default(),
		pending:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(abs); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Run blocks until ctx is done, calling onChange with every settled batch of
// changed files, sorted. Batches are delivered one at a time.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case now := <-ticker.C:
			if ready := w.ready(now); len(ready) > 0 {
				onChange(ready)
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

// Watched returns the watched directories.
func (w *Watcher) Watched() []string {
	return w.fsWatcher.WatchList()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || w.config.ShouldExclude(rel) {
		return
	}

	if event.Has(fsnotify.Create) {
		if err := w.addTree(event.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("watch directory", "path", event.Name, "error", err)
		}
	}

	if parser.DetectLanguage(event.Name) == parser.LangUnknown {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// ready removes and returns the files unchanged for the debounce period.
func (w *Watcher) ready(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []string
	for path, changed := range w.pending {
		if now.Sub(changed) >= w.debounce {
			out = append(out, path)
			delete(w.pending, path)
		}
	}
	slices.Sort(out)
	return out
}

// addTree watches dir and its subdirectories. Files are ignored.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && slices.Contains(w.config.Exclude.Dirs, d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}
