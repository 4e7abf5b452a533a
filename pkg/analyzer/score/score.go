// Package score turns category statistics into the comment density score
// (CDS) and the comment-to-code ratio, colored against thresholds.
package score

import (
	"math"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/stats"
)

// Score computes both metrics for stats over totalLOC lines of code and
// applies thresholds to them and to every category.
func Score(st []stats.CategoryStatistic, totalLOC int, thresholds stats.Thresholds) Result {
	withStatus, exceeded := stats.WithStatus(st, thresholds)

	r := Result{
		CDS:        CDS(st),
		ComToLoc:   ComToLoc(st, totalLOC),
		Statistics: withStatus,
	}

	var cdsExceeded, locExceeded bool
	r.CDSColor, cdsExceeded = color(r.CDS, stats.MetricCDS, thresholds)
	r.ComToLocColor, locExceeded = color(r.ComToLoc, stats.MetricComToLoc, thresholds)
	r.Exceeded = exceeded || cdsExceeded || locExceeded
	return r
}

// CDS returns the comment density score: the weighted sum of findings placed
// between the worst case (every wanted comment missing, every unwanted one
// counted) and the best case (every documentable spot documented).
func CDS(st []stats.CategoryStatistic) float64 {
	var raw, min float64
	for _, s := range st {
		rule, _ := comments.Lookup(s.Category)
		contribution := float64(s.Count) * rule.Weight
		raw += contribution
		if rule.Negative() {
			min += contribution
		} else {
			min -= contribution
		}
	}

	docWeight := comments.Weight(comments.CategoryDocBlock)
	max := float64(stats.Count(st, comments.CategoryMissingDocBlock)+stats.Count(st, comments.CategoryDocBlock)) * docWeight

	return Round2(ScaleToRange(raw, min, max))
}

// ComToLoc returns comment lines per line of code, 0 without code.
func ComToLoc(st []stats.CategoryStatistic, totalLOC int) float64 {
	if totalLOC <= 0 {
		return 0
	}
	return Round2(float64(stats.TotalLines(st)) / float64(totalLOC))
}

// color grades a metric against the threshold named metric. Metrics pass
// when they reach the threshold.
func color(value float64, metric string, thresholds stats.Thresholds) (comments.Color, bool) {
	limit, ok := thresholds.Lookup(metric)
	if !ok || math.IsNaN(limit) {
		return comments.ColorWhite, false
	}
	if value >= limit {
		return comments.ColorGreen, false
	}
	return comments.ColorRed, true
}
