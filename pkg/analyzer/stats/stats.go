// Package stats groups findings into per-category statistics.
package stats

import (
	"fmt"
	"strings"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
)

// ClassificationError reports a finding whose category has no scoring rule.
type ClassificationError struct {
	Category comments.Category
	File     string
	Line     uint32
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("unknown comment category %q at %s:%d", e.Category, e.File, e.Line)
}

// CategoryStatistic summarizes every finding of one category.
type CategoryStatistic struct {
	Category comments.Category `json:"category" toon:"category"`
	// Color is the display color of the category itself.
	Color comments.Color `json:"color" toon:"color"`
	// Lines is the number of lines the findings span.
	Lines int `json:"lines" toon:"lines"`
	Count int `json:"count" toon:"count"`
	// Status is green or red against the category threshold, white when none
	// is configured.
	Status comments.Color `json:"status" toon:"status"`
}

// Thresholds maps a category name, "CDS" or "Com/LoC" to its limit.
type Thresholds map[string]float64

// Metric names that share the threshold map with the categories.
const (
	MetricCDS      = "CDS"
	MetricComToLoc = "Com/LoC"
)

// Lookup returns the limit configured for name.
func (t Thresholds) Lookup(name string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	v, ok := t[name]
	return v, ok
}

// Lines returns the number of lines a finding spans. Missing docblocks have
// no text and count as one line.
func Lines(f comments.Finding) int {
	return strings.Count(f.Text, "\n") + 1
}

// Aggregate groups findings by category. Statistics are returned in the fixed
// category order and categories without findings are omitted. Status is left
// white; see WithStatus.
func Aggregate(findings []comments.Finding) ([]CategoryStatistic, error) {
	counts := make(map[comments.Category]*CategoryStatistic)
	for _, f := range findings {
		rule, ok := comments.Lookup(f.Category)
		if !ok {
			return nil, &ClassificationError{Category: f.Category, File: f.File, Line: f.Line}
		}
		s, ok := counts[f.Category]
		if !ok {
			s = &CategoryStatistic{Category: f.Category, Color: rule.Color, Status: comments.ColorWhite}
			counts[f.Category] = s
		}
		s.Count++
		s.Lines += Lines(f)
	}
	return ordered(counts), nil
}

// Merge sums statistics of disjoint finding sets, e.g. per-file results.
func Merge(parts ...[]CategoryStatistic) []CategoryStatistic {
	counts := make(map[comments.Category]*CategoryStatistic)
	for _, part := range parts {
		for _, st := range part {
			s, ok := counts[st.Category]
			if !ok {
				s = &CategoryStatistic{Category: st.Category, Color: st.Color, Status: comments.ColorWhite}
				counts[st.Category] = s
			}
			s.Count += st.Count
			s.Lines += st.Lines
		}
	}
	return ordered(counts)
}

func ordered(counts map[comments.Category]*CategoryStatistic) []CategoryStatistic {
	out := make([]CategoryStatistic, 0, len(counts))
	for _, cat := range comments.Categories() {
		if s, ok := counts[cat]; ok {
			out = append(out, *s)
		}
	}
	return out
}

// Count returns the number of findings of cat.
func Count(stats []CategoryStatistic, cat comments.Category) int {
	for _, s := range stats {
		if s.Category == cat {
			return s.Count
		}
	}
	return 0
}

// TotalLines sums the lines of every statistic.
func TotalLines(stats []CategoryStatistic) int {
	total := 0
	for _, s := range stats {
		total += s.Lines
	}
	return total
}

// Passes reports whether count satisfies the category's threshold. The second
// result is false when no threshold is configured.
func Passes(cat comments.Category, count int, thresholds Thresholds) (passed, checked bool) {
	limit, ok := thresholds.Lookup(string(cat))
	if !ok {
		return true, false
	}
	rule, _ := comments.Lookup(cat)
	if rule.Direction == comments.AtLeast {
		return float64(count) >= limit, true
	}
	return float64(count) <= limit, true
}

// WithStatus returns a copy of stats with Status set against thresholds, and
// whether any category violated its threshold.
func WithStatus(stats []CategoryStatistic, thresholds Thresholds) ([]CategoryStatistic, bool) {
	out := make([]CategoryStatistic, len(stats))
	exceeded := false
	for i, s := range stats {
		passed, checked := Passes(s.Category, s.Count, thresholds)
		switch {
		case !checked:
			s.Status = comments.ColorWhite
		case passed:
			s.Status = comments.ColorGreen
		default:
			s.Status = comments.ColorRed
			exceeded = true
		}
		out[i] = s
	}
	return out, exceeded
}
