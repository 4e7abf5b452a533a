package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/density"
	"github.com/panbanda/cdensity/pkg/analyzer/score"
	"github.com/panbanda/cdensity/pkg/analyzer/stats"
)

func sampleReport() *density.Report {
	findings := []comments.Finding{
		{Category: comments.CategoryTodo, Color: comments.ColorYellow, File: "/repo/src/A.php", Line: 3, Text: "// TODO: <escape> me"},
		comments.NewMissingDocBlock("/repo/src/A.php", 9),
		{Category: comments.CategoryDocBlock, Color: comments.ColorGreen, File: "/repo/src/B.php", Line: 2, Text: "/**\n * Documented.\n */"},
	}
	st, _ := stats.Aggregate(findings)
	return &density.Report{
		Commit:   "abc1234",
		Score:    score.Score(st, 40, stats.Thresholds{stats.MetricCDS: 0.9}),
		TotalLOC: 40,
		Findings: findings,
		Files: []density.FileReport{
			{Path: "/repo/src/A.php", LOC: 20, Findings: 2, CDS: 0},
			{Path: "/repo/src/B.php", LOC: 20, Findings: 1, CDS: 1},
		},
		Distribution: score.Summarize([]float64{0, 1}),
		Errors:       []density.FileError{{Path: "/repo/broken.php", Message: "permission denied"}},
	}
}

func TestNewRenderData(t *testing.T) {
	data := NewRenderData(sampleReport(), Metadata{Repository: "repo", Root: "/repo"})

	if data.Metadata.Commit != "abc1234" {
		t.Errorf("Commit = %q, want it taken from the report", data.Metadata.Commit)
	}
	if len(data.Categories) != 3 {
		t.Fatalf("Categories = %d, want 3", len(data.Categories))
	}
	var share float64
	for _, c := range data.Categories {
		share += c.Share
	}
	if share < 99.9 || share > 100.1 {
		t.Errorf("category shares sum to %v, want 100", share)
	}
	if data.Files[0].Path != "src/A.php" {
		t.Errorf("worst file = %q, want src/A.php", data.Files[0].Path)
	}
	if data.Findings[2].Excerpt != "/**" {
		t.Errorf("Excerpt = %q, want first line", data.Findings[2].Excerpt)
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		text string
		n    int
		want string
	}{
		{"// short", 20, "// short"},
		{"  /* one\n two */", 20, "/* one"},
		{"// 0123456789", 6, "// 01…"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := Excerpt(tt.text, tt.n); got != tt.want {
			t.Errorf("Excerpt(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	meta := Metadata{
		Repository:  "acme/shop",
		GeneratedAt: time.Date(2024, 12, 10, 9, 30, 0, 0, time.UTC),
		Version:     "1.2.0",
		Root:        "/repo",
	}
	var buf bytes.Buffer
	if err := r.Render(NewRenderData(sampleReport(), meta), &buf); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"acme/shop",
		"<code>abc1234</code>",
		"2024-12-10 09:30",
		"missingDocblock",
		"src/A.php:9",
		"Failed",
		"permission denied",
		"&lt;escape&gt;",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page is missing %q", want)
		}
	}
	if strings.Contains(html, "<escape>") {
		t.Error("comment text must be escaped")
	}
}

func TestRenderEmpty(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(NewRenderData(&density.Report{}, Metadata{}), &buf); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "No comments found.") {
		t.Error("empty report should say no comments were found")
	}
}

func TestRenderToFile(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "report.html")
	if err := r.RenderToFile(NewRenderData(sampleReport(), Metadata{}), path); err != nil {
		t.Fatalf("RenderToFile() error: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(content, []byte("<!DOCTYPE html>")) {
		t.Error("RenderToFile() should write an HTML document")
	}

	if err := r.RenderToFile(NewRenderData(sampleReport(), Metadata{}), "/nonexistent/dir/report.html"); err == nil {
		t.Error("RenderToFile() should fail for an unwritable path")
	}
}
