package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/panbanda/cdensity/internal/report"
	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/density"
)

// DensityView renders a density report in every format.
type DensityView struct {
	Report *density.Report
	// Meta describes the run for the HTML page; Meta.Root also shortens
	// paths in every other format.
	Meta report.Metadata
	// MaxFindings bounds the findings listed in text and Markdown; 0 lists
	// all of them.
	MaxFindings int
	// MaxFiles bounds the per-file table; 0 hides it.
	MaxFiles int
}

// NewDensityView creates a view listing every finding and the ten lowest
// scoring files.
func NewDensityView(r *density.Report, meta report.Metadata) *DensityView {
	return &DensityView{Report: r, Meta: meta, MaxFiles: 10}
}

// RenderData returns the report itself.
func (v *DensityView) RenderData() any {
	return v.Report
}

// RenderText writes the report as tables.
func (v *DensityView) RenderText(w io.Writer, colored bool) error {
	return v.compose().RenderText(w, colored)
}

// RenderMarkdown writes the report as Markdown tables.
func (v *DensityView) RenderMarkdown(w io.Writer) error {
	return v.compose().RenderMarkdown(w)
}

// RenderHTML writes the report as a standalone page.
func (v *DensityView) RenderHTML(w io.Writer) error {
	r, err := report.NewRenderer()
	if err != nil {
		return err
	}
	return r.Render(report.NewRenderData(v.Report, v.Meta), w)
}

func (v *DensityView) relative(path string) string {
	if v.Meta.Root == "" {
		return path
	}
	if rel, err := filepath.Rel(v.Meta.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

func (v *DensityView) compose() *Report {
	r := v.Report
	out := &Report{Title: "Comment Density Report"}

	if len(r.Findings) > 0 {
		out.Sections = append(out.Sections, v.findingsTable())
	}
	out.Sections = append(out.Sections, v.statisticsTable(), v.summary())
	if v.MaxFiles > 0 {
		if files := r.WorstFiles(v.MaxFiles); len(files) > 0 {
			out.Sections = append(out.Sections, v.filesTable(files))
		}
	}
	if len(r.Errors) > 0 {
		out.Sections = append(out.Sections, v.errorsTable())
	}
	return out
}

func (v *DensityView) findingsTable() *Table {
	t := &Table{
		Title:   "Findings",
		Headers: []string{"File", "Line", "Category", "Comment"},
	}
	findings := v.Report.Findings
	if v.MaxFindings > 0 && len(findings) > v.MaxFindings {
		t.Footer = []string{fmt.Sprintf("%d more", len(findings)-v.MaxFindings), "", "", ""}
		findings = findings[:v.MaxFindings]
	}
	for _, f := range findings {
		t.Rows = append(t.Rows, []string{
			v.relative(f.File),
			strconv.FormatUint(uint64(f.Line), 10),
			string(f.Category),
			report.Excerpt(f.Text, 80),
		})
		t.RowColors = append(t.RowColors, f.Color)
	}
	return t
}

func (v *DensityView) statisticsTable() *Table {
	t := &Table{
		Title:   "Statistics",
		Headers: []string{"Category", "Lines", "Count", "Status"},
	}
	for _, s := range v.Report.Score.Statistics {
		t.Rows = append(t.Rows, []string{
			string(s.Category),
			strconv.Itoa(s.Lines),
			strconv.Itoa(s.Count),
			statusLabel(s.Status),
		})
		t.RowColors = append(t.RowColors, s.Status)
	}
	return t
}

func (v *DensityView) summary() *Table {
	r := v.Report
	t := &Table{
		Title:   "Score",
		Headers: []string{"Metric", "Value", "Status"},
		Rows: [][]string{
			{"CDS", fmt.Sprintf("%.2f", r.Score.CDS), statusLabel(r.Score.CDSColor)},
			{"Com/LoC", fmt.Sprintf("%.2f", r.Score.ComToLoc), statusLabel(r.Score.ComToLocColor)},
			{"Lines of code", strconv.Itoa(r.TotalLOC), ""},
			{"Files", strconv.Itoa(len(r.Files)), ""},
		},
		RowColors: []comments.Color{r.Score.CDSColor, r.Score.ComToLocColor},
	}
	if r.Suppressed > 0 {
		t.Rows = append(t.Rows, []string{"Suppressed by baseline", strconv.Itoa(r.Suppressed), ""})
	}
	if r.Commit != "" {
		t.Rows = append(t.Rows, []string{"Commit", r.Commit, ""})
	}
	return t
}

func (v *DensityView) filesTable(files []density.FileReport) *Table {
	t := &Table{
		Title:   "Lowest Scoring Files",
		Headers: []string{"File", "LOC", "Findings", "CDS"},
	}
	for _, f := range files {
		t.Rows = append(t.Rows, []string{
			v.relative(f.Path),
			strconv.Itoa(f.LOC),
			strconv.Itoa(f.Findings),
			fmt.Sprintf("%.2f", f.CDS),
		})
	}
	return t
}

func (v *DensityView) errorsTable() *Table {
	t := &Table{
		Title:   "Skipped Files",
		Headers: []string{"File", "Error"},
	}
	for _, e := range v.Report.Errors {
		t.Rows = append(t.Rows, []string{v.relative(e.Path), e.Message})
		t.RowColors = append(t.RowColors, comments.ColorRed)
	}
	return t
}

func statusLabel(c comments.Color) string {
	switch c {
	case comments.ColorGreen:
		return "passed"
	case comments.ColorRed:
		return "exceeded"
	default:
		return "-"
	}
}
