package density

import (
	"sort"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/score"
	"github.com/panbanda/cdensity/pkg/analyzer/stats"
)

// Report is the result of analyzing a file set.
type Report struct {
	// Commit is set when the files were read from a git revision.
	Commit       string             `json:"commit,omitempty" toon:"commit,omitempty"`
	Score        score.Result       `json:"score" toon:"score"`
	Distribution score.Distribution `json:"distribution" toon:"distribution"`
	TotalLOC     int                `json:"total_loc" toon:"total_loc"`
	Files        []FileReport       `json:"files" toon:"files"`
	Findings     []comments.Finding `json:"findings" toon:"findings"`
	// Suppressed counts findings dropped by the baseline.
	Suppressed int         `json:"suppressed,omitempty" toon:"suppressed,omitempty"`
	Errors     []FileError `json:"errors,omitempty" toon:"errors,omitempty"`
}

// FileReport is the breakdown of one file.
type FileReport struct {
	Path       string                    `json:"path" toon:"path"`
	LOC        int                       `json:"loc" toon:"loc"`
	Findings   int                       `json:"findings" toon:"findings"`
	CDS        float64                   `json:"cds" toon:"cds"`
	Statistics []stats.CategoryStatistic `json:"statistics" toon:"statistics"`
}

// FileError describes a file that was skipped.
type FileError struct {
	Path    string `json:"path" toon:"path"`
	Message string `json:"message" toon:"message"`
}

// Passed reports whether every configured threshold holds.
func (r *Report) Passed() bool {
	return r.Score.Passed()
}

// WorstFiles returns up to n files ordered by ascending CDS. Files without
// findings are left out.
func (r *Report) WorstFiles(n int) []FileReport {
	files := make([]FileReport, 0, len(r.Files))
	for _, f := range r.Files {
		if f.Findings > 0 {
			files = append(files, f)
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CDS < files[j].CDS
	})
	if n > 0 && len(files) > n {
		files = files[:n]
	}
	return files
}

// FindingsByFile groups the report's findings by path, keeping source order
// within each file.
func (r *Report) FindingsByFile() map[string][]comments.Finding {
	out := make(map[string][]comments.Finding)
	for _, f := range r.Findings {
		out[f.File] = append(out[f.File], f)
	}
	return out
}
