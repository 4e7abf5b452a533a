package density

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/cdensity/internal/baseline"
	"github.com/panbanda/cdensity/internal/cache"
	"github.com/panbanda/cdensity/pkg/analyzer"
	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/docblock"
	"github.com/panbanda/cdensity/pkg/analyzer/stats"
)

const libSource = `<?php
namespace Lib;

/**
 * HTTP client.
 */
class Client
{
    /** @throws \RuntimeException */
    public function send(): void {}
}
`

const appSource = `<?php
namespace App;

use Lib\Client;

// bootstrap
function run(Client $c): void
{
    $c->send();
}
`

func writeFiles(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		paths = append(paths, path)
	}
	return dir, paths
}

func functionsOnly() Option {
	return WithDocBlockConfig(docblock.Config{Function: true})
}

func TestAnalyze_CrossFile(t *testing.T) {
	dir, files := writeFiles(t, map[string]string{"lib/Client.php": libSource, "app/run.php": appSource})

	report, err := New(functionsOnly()).Analyze(context.Background(), files, nil)
	require.NoError(t, err)
	require.Empty(t, report.Errors)

	run := filepath.Join(dir, "app/run.php")
	assert.Contains(t, report.Findings, comments.NewMissingDocBlock(run, 7))
	assert.Equal(t, 1, stats.Count(report.Score.Statistics, comments.CategoryMissingDocBlock))
	assert.Equal(t, 1, stats.Count(report.Score.Statistics, comments.CategoryRegular))
	assert.Equal(t, 2, stats.Count(report.Score.Statistics, comments.CategoryDocBlock))
	assert.Equal(t, 21, report.TotalLOC)
	assert.Len(t, report.Files, 2)
	assert.Equal(t, 2, report.Distribution.Files)
}

func TestAnalyze_FileOrderIsStable(t *testing.T) {
	_, files := writeFiles(t, map[string]string{"a.php": libSource, "b.php": appSource, "c.php": "<?php // x\n"})

	first, err := New(WithWorkers(1)).Analyze(context.Background(), files, nil)
	require.NoError(t, err)
	second, err := New(WithWorkers(8)).Analyze(context.Background(), files, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Findings, second.Findings)
	assert.Equal(t, first.Score, second.Score)
	for i, f := range first.Files {
		assert.Equal(t, files[i], f.Path)
	}
}

func TestAnalyze_Thresholds(t *testing.T) {
	_, files := writeFiles(t, map[string]string{"a.php": appSource})

	report, err := New(
		functionsOnly(),
		WithThresholds(stats.Thresholds{"missingDocblock": 0, stats.MetricCDS: 0.5}),
	).Analyze(context.Background(), files, nil)
	require.NoError(t, err)

	assert.False(t, report.Passed())
	assert.Equal(t, comments.ColorRed, report.Score.CDSColor)
}

func TestAnalyze_AllowedCategories(t *testing.T) {
	_, files := writeFiles(t, map[string]string{"a.php": libSource, "b.php": appSource})

	report, err := New(functionsOnly(), WithAllowedCategories(comments.CategoryRegular)).
		Analyze(context.Background(), files, nil)
	require.NoError(t, err)

	require.Len(t, report.Findings, 1)
	assert.Equal(t, comments.CategoryRegular, report.Findings[0].Category)
}

func TestAnalyze_Cache(t *testing.T) {
	dir, files := writeFiles(t, map[string]string{"lib/Client.php": libSource, "app/run.php": appSource})
	c, err := cache.New(filepath.Join(t.TempDir(), "cache"), time.Hour, true)
	require.NoError(t, err)

	a := New(functionsOnly(), WithCache(c))
	first, err := a.Analyze(context.Background(), files, nil)
	require.NoError(t, err)

	st, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Entries)

	second, err := a.Analyze(context.Background(), files, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Findings, second.Findings)

	// documenting the thrown exception away changes the symbol digest, so the
	// unchanged caller is rescanned
	lib := filepath.Join(dir, "lib/Client.php")
	require.NoError(t, os.WriteFile(lib, []byte(`<?php
namespace Lib;

/**
 * HTTP client.
 */
class Client
{
    public function send(): void {}
}
`), 0o644))

	third, err := a.Analyze(context.Background(), files, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count(third.Score.Statistics, comments.CategoryMissingDocBlock))
}

func TestAnalyze_Baseline(t *testing.T) {
	dir, files := writeFiles(t, map[string]string{"a.php": appSource})

	before, err := New(functionsOnly()).Analyze(context.Background(), files, nil)
	require.NoError(t, err)
	require.NotEmpty(t, before.Findings)

	b := baseline.Build(dir, before.Findings)
	after, err := New(functionsOnly(), WithBaseline(b)).Analyze(context.Background(), files, nil)
	require.NoError(t, err)

	assert.Empty(t, after.Findings)
	assert.Equal(t, len(before.Findings), after.Suppressed)
	assert.Equal(t, before.TotalLOC, after.TotalLOC)
}

func TestAnalyze_Progress(t *testing.T) {
	_, files := writeFiles(t, map[string]string{"a.php": libSource, "b.php": appSource})

	var mu sync.Mutex
	seen := map[analyzer.Phase]int{}
	tracker := analyzer.NewTracker(func(phase analyzer.Phase, current, total int, _ string) {
		mu.Lock()
		defer mu.Unlock()
		seen[phase]++
		assert.LessOrEqual(t, current, total)
	})

	ctx := analyzer.WithTracker(context.Background(), tracker)
	_, err := New().Analyze(ctx, files, nil)
	require.NoError(t, err)

	assert.Equal(t, map[analyzer.Phase]int{analyzer.PhaseIndex: 2, analyzer.PhaseAnalyze: 2}, seen)
	assert.Equal(t, analyzer.PhaseAnalyze, tracker.Phase())
}

func TestAnalyze_UnreadableFile(t *testing.T) {
	dir, files := writeFiles(t, map[string]string{"a.php": appSource})
	missing := filepath.Join(dir, "missing.php")

	report, err := New().Analyze(context.Background(), append(files, missing), nil)
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, missing, report.Errors[0].Path)
	assert.Len(t, report.Files, 1)
}

func TestAnalyze_Cancelled(t *testing.T) {
	_, files := writeFiles(t, map[string]string{"a.php": appSource})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Analyze(ctx, files, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

type commitSource struct{}

func (commitSource) Read(string) ([]byte, error) { return []byte(appSource), nil }
func (commitSource) Commit() string             { return "abc123" }

func TestAnalyze_CommitFromSource(t *testing.T) {
	report, err := New().Analyze(context.Background(), []string{"run.php"}, commitSource{})
	require.NoError(t, err)
	assert.Equal(t, "abc123", report.Commit)
	assert.Equal(t, "run.php", report.Files[0].Path)
}

func TestAnalyze_Empty(t *testing.T) {
	report, err := New().Analyze(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Files)
	assert.Zero(t, report.TotalLOC)
	assert.True(t, report.Passed())
}

func TestReport_WorstFiles(t *testing.T) {
	r := &Report{Files: []FileReport{
		{Path: "a", CDS: 0.9, Findings: 1},
		{Path: "b", CDS: 0.1, Findings: 2},
		{Path: "c", CDS: 0, Findings: 0},
		{Path: "d", CDS: 0.5, Findings: 1},
	}}
	worst := r.WorstFiles(2)
	require.Len(t, worst, 2)
	assert.Equal(t, "b", worst[0].Path)
	assert.Equal(t, "d", worst[1].Path)
	assert.Len(t, r.WorstFiles(0), 3)
}

func TestReport_FindingsByFile(t *testing.T) {
	r := &Report{Findings: []comments.Finding{
		comments.NewMissingDocBlock("a.php", 1),
		comments.NewMissingDocBlock("b.php", 1),
		comments.NewMissingDocBlock("a.php", 5),
	}}
	byFile := r.FindingsByFile()
	assert.Len(t, byFile["a.php"], 2)
	assert.Equal(t, uint32(5), byFile["a.php"][1].Line)
}
