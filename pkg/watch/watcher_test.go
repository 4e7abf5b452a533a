package watch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/cdensity/internal/testutil"
	"github.com/panbanda/cdensity/pkg/config"
)

func newWatcher(t *testing.T, root string, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(root, config.DefaultConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestNew(t *testing.T) {
	root := testutil.Project(t, map[string]string{
		"src/a.php":          "<?php",
		"vendor/lib/b.php":   "<?php",
		"src/deep/inner.php": "<?php",
	})

	w := newWatcher(t, root)
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.Equal(t, root, w.Root())
	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, "src"),
		filepath.Join(root, "src", "deep"),
	}, w.Watched())

	w = newWatcher(t, root, WithDebounce(time.Second), WithDebounce(-1), WithLogger(nil))
	assert.Equal(t, time.Second, w.debounce)
	assert.NotNil(t, w.logger)
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestHandle(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)

	php := filepath.Join(root, "a.php")
	w.handle(fsnotify.Event{Name: php, Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(root, "notes.txt"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(root, "vendor", "x.php"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(root, "home.blade.php"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(root, "b.php"), Op: fsnotify.Chmod})

	assert.Empty(t, w.ready(time.Now()))
	assert.Equal(t, []string{php}, w.ready(time.Now().Add(DefaultDebounce)))
	assert.Empty(t, w.ready(time.Now().Add(DefaultDebounce)))
}

func TestHandle_NewDirectory(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)

	dir := filepath.Join(root, "app")
	testutil.WriteFile(t, filepath.Join(dir, "c.php"), "<?php")
	w.handle(fsnotify.Event{Name: dir, Op: fsnotify.Create})

	assert.Contains(t, w.Watched(), dir)
}

func TestRun(t *testing.T) {
	root := testutil.Project(t, map[string]string{"a.php": "<?php"})
	w := newWatcher(t, root, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	batches := make(chan []string, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(changed []string) {
			select {
			case batches <- changed:
			default:
			}
		})
	}()

	path := filepath.Join(root, "a.php")
	testutil.WriteFile(t, path, "<?php // changed")

	select {
	case got := <-batches:
		assert.Equal(t, []string{path}, got)
	case <-ctx.Done():
		t.Fatal("no change reported")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
