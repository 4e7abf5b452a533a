package report

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/density"
	"github.com/panbanda/cdensity/pkg/analyzer/score"
	"github.com/panbanda/cdensity/pkg/analyzer/stats"
)

// Metadata contains report generation metadata.
type Metadata struct {
	Repository  string    `json:"repository"`
	GeneratedAt time.Time `json:"generated_at"`
	Commit      string    `json:"commit,omitempty"`
	Version     string    `json:"version"`
	Paths       []string  `json:"paths"`
	// Root shortens file paths in the page; empty keeps them as reported.
	Root string `json:"-"`
}

// CategoryRow is one line of the statistics table.
type CategoryRow struct {
	stats.CategoryStatistic
	// Share is the category's percentage of all comment lines.
	Share float64
}

// FindingRow is one finding as displayed.
type FindingRow struct {
	File     string
	Line     uint32
	Category comments.Category
	Color    comments.Color
	Excerpt  string
}

// FileRow is one file of the per-file breakdown.
type FileRow struct {
	Path     string
	LOC      int
	Findings int
	CDS      float64
}

// RenderData contains all data needed to render the report.
type RenderData struct {
	Metadata     Metadata
	Score        score.Result
	Distribution score.Distribution
	TotalLOC     int
	Suppressed   int
	Categories   []CategoryRow
	Files        []FileRow
	Findings     []FindingRow
	Errors       []density.FileError
}

// MaxFindings bounds the findings listed on the page.
const MaxFindings = 500

// NewRenderData prepares a density report for the template. Files are listed
// worst first.
func NewRenderData(r *density.Report, meta Metadata) *RenderData {
	if meta.Commit == "" {
		meta.Commit = r.Commit
	}
	data := &RenderData{
		Metadata:     meta,
		Score:        r.Score,
		Distribution: r.Distribution,
		TotalLOC:     r.TotalLOC,
		Suppressed:   r.Suppressed,
		Errors:       r.Errors,
	}

	total := stats.TotalLines(r.Score.Statistics)
	for _, s := range r.Score.Statistics {
		row := CategoryRow{CategoryStatistic: s}
		if total > 0 {
			row.Share = float64(s.Lines) / float64(total) * 100
		}
		data.Categories = append(data.Categories, row)
	}

	for _, f := range r.WorstFiles(0) {
		data.Files = append(data.Files, FileRow{
			Path:     meta.relative(f.Path),
			LOC:      f.LOC,
			Findings: f.Findings,
			CDS:      f.CDS,
		})
	}

	for i, f := range r.Findings {
		if i == MaxFindings {
			break
		}
		data.Findings = append(data.Findings, FindingRow{
			File:     meta.relative(f.File),
			Line:     f.Line,
			Category: f.Category,
			Color:    f.Color,
			Excerpt:  Excerpt(f.Text, 120),
		})
	}
	return data
}

func (m Metadata) relative(path string) string {
	if m.Root == "" {
		return path
	}
	if rel, err := filepath.Rel(m.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

// Excerpt returns the first line of a comment, cut to n runes.
func Excerpt(text string, n int) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	line = strings.TrimSpace(line)
	if r := []rune(line); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return line
}
