// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/panbanda/cdensity/pkg/analyzer"
	"github.com/panbanda/cdensity/pkg/parser"
	"github.com/panbanda/cdensity/pkg/source"
)

// ErrFileTooLarge is recorded for files above the configured size limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// Merge appends every error of other.
func (e *ProcessingErrors) Merge(other *ProcessingErrors) {
	if other == nil {
		return
	}
	other.mu.Lock()
	errs := append([]ProcessingError(nil), other.Errors...)
	other.mu.Unlock()

	e.mu.Lock()
	e.Errors = append(e.Errors, errs...)
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// Options bounds a parallel run.
type Options struct {
	// Workers is the number of concurrent workers; <= 0 means 2x NumCPU.
	Workers int
	// MaxFileSize skips larger files with ErrFileTooLarge; 0 disables it.
	MaxFileSize int64
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// MapSource reads every file from src and calls fn with a worker-owned
// parser. Results keep the order of files; failed files are left out and
// recorded in the returned errors, which is nil when every file succeeded.
// The context tracker, if any, is ticked once per file.
func MapSource[T any](
	ctx context.Context,
	files []string,
	src source.ContentSource,
	opts Options,
	fn func(*parser.Parser, string, []byte) (T, error),
) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	tracker := analyzer.TrackerFromContext(ctx)
	tick := func(path string) {
		if tracker != nil {
			tracker.Tick(path)
		}
	}

	type slot struct {
		value T
		ok    bool
	}
	slots := make([]slot, len(files))
	errs := &ProcessingErrors{}

	p := pool.New().WithMaxGoroutines(opts.workers()).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			defer tick(path)

			if err := ctx.Err(); err != nil {
				errs.Add(path, err)
				return err
			}

			content, err := src.Read(path)
			if err != nil {
				errs.Add(path, err)
				return nil
			}
			if opts.MaxFileSize > 0 && int64(len(content)) > opts.MaxFileSize {
				errs.Add(path, ErrFileTooLarge)
				return nil
			}

			psr := parser.New()
			defer psr.Close()

			result, err := fn(psr, path, content)
			if err != nil {
				errs.Add(path, err)
				return nil // individual file errors never stop the pool
			}
			slots[i] = slot{value: result, ok: true}
			return nil
		})
	}
	_ = p.Wait() // context errors are already captured in errs

	results := make([]T, 0, len(files))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.value)
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
