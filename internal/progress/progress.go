// Package progress draws progress bars on stderr for the analysis phases.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/panbanda/cdensity/pkg/analyzer"
)

// Tracker wraps a progress bar for file processing.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	w     io.Writer
}

// NewSpinner creates a spinner for operations with unknown total count.
func NewSpinner(label string) *Tracker {
	return newSpinner(os.Stderr, label)
}

func newSpinner(w io.Writer, label string) *Tracker {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, label: label, w: w}
}

// NewTracker creates a progress bar with the given label and total count.
func NewTracker(label string, total int) *Tracker {
	return newTracker(os.Stderr, label, total)
}

func newTracker(w io.Writer, label string, total int) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, w: w}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	_ = t.bar.Add(1)
}

// Set moves the bar to n.
func (t *Tracker) Set(n int) {
	_ = t.bar.Set(n)
}

// FinishSuccess clears the bar.
func (t *Tracker) FinishSuccess() {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// FinishError clears the bar and prints the error.
func (t *Tracker) FinishError(err error) {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
	fmt.Fprintf(t.w, "  %s error: %v\n", t.label, err)
}

var phaseLabels = map[analyzer.Phase]string{
	analyzer.PhaseIndex:   "Indexing declarations",
	analyzer.PhaseAnalyze: "Analyzing comments",
}

// Phases shows one bar per analysis phase. Its Update method is an
// analyzer.ProgressFunc.
type Phases struct {
	mu      sync.Mutex
	w       io.Writer
	phase   analyzer.Phase
	current *Tracker
}

// NewPhases creates phase bars drawn on stderr.
func NewPhases() *Phases {
	return &Phases{w: os.Stderr}
}

// Update advances the bar of phase, replacing the bar of the previous phase.
func (p *Phases) Update(phase analyzer.Phase, current, total int, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil || phase != p.phase {
		if p.current != nil {
			p.current.FinishSuccess()
		}
		label, ok := phaseLabels[phase]
		if !ok {
			label = string(phase)
		}
		p.phase = phase
		p.current = newTracker(p.w, label, total)
	}
	p.current.Set(current)
}

// Done clears the active bar.
func (p *Phases) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.FinishSuccess()
		p.current = nil
	}
}
