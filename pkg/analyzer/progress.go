// Package analyzer holds the plumbing shared by the analysis passes.
package analyzer

import (
	"context"
	"sync"
	"sync/atomic"
)

// Phase names a pass over the file set.
type Phase string

const (
	PhaseIndex   Phase = "index"
	PhaseAnalyze Phase = "analyze"
)

// ProgressFunc is called to report progress within a phase.
// current is the number of files processed so far in the phase, total the
// number of files the phase will process and path the file just completed.
type ProgressFunc func(phase Phase, current, total int, path string)

// Tracker tracks progress across the phases of an analysis.
// It is safe for concurrent use from multiple goroutines.
type Tracker struct {
	mu       sync.Mutex
	phase    Phase
	total    atomic.Int64
	current  atomic.Int64
	callback ProgressFunc
}

// NewTracker creates a tracker that reports each Tick to callback.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Begin starts a new phase of total files and resets the count.
func (t *Tracker) Begin(phase Phase, total int) {
	t.mu.Lock()
	t.phase = phase
	t.mu.Unlock()
	t.current.Store(0)
	t.total.Store(int64(total))
}

// Phase returns the active phase.
func (t *Tracker) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Tick marks one file of the active phase as completed.
func (t *Tracker) Tick(path string) {
	current := int(t.current.Add(1))
	if t.callback != nil {
		t.callback(t.Phase(), current, t.Total(), path)
	}
}

// Current returns the number of files completed in the active phase.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Total returns the number of files of the active phase.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context that carries a progress tracker.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext extracts the progress tracker from the context.
// Returns nil if no tracker was set.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
