package score

import (
	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/stats"
)

// Result is the outcome of scoring a set of statistics.
type Result struct {
	// CDS is the comment density score in [0, 1], rounded to 2 decimals.
	CDS      float64        `json:"cds" toon:"cds"`
	CDSColor comments.Color `json:"cds_color" toon:"cds_color"`
	// ComToLoc is comment lines per line of code, rounded to 2 decimals.
	ComToLoc      float64        `json:"com_to_loc" toon:"com_to_loc"`
	ComToLocColor comments.Color `json:"com_to_loc_color" toon:"com_to_loc_color"`
	// Exceeded is set when any metric or category violates its threshold.
	Exceeded   bool                      `json:"exceeded" toon:"exceeded"`
	Statistics []stats.CategoryStatistic `json:"statistics" toon:"statistics"`
}

// Passed reports whether every configured threshold holds.
func (r Result) Passed() bool {
	return !r.Exceeded
}

// Distribution summarizes per-file scores.
type Distribution struct {
	Files  int     `json:"files" toon:"files"`
	Mean   float64 `json:"mean" toon:"mean"`
	StdDev float64 `json:"std_dev" toon:"std_dev"`
	Min    float64 `json:"min" toon:"min"`
	Median float64 `json:"median" toon:"median"`
	P90    float64 `json:"p90" toon:"p90"`
	Max    float64 `json:"max" toon:"max"`
}
