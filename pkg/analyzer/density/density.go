// Package density runs the full comment density analysis over a file set:
// an index pass that builds the project symbol table, then a scan pass whose
// findings are filtered, aggregated and scored.
package density

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/panbanda/cdensity/internal/baseline"
	"github.com/panbanda/cdensity/internal/cache"
	"github.com/panbanda/cdensity/internal/fileproc"
	"github.com/panbanda/cdensity/pkg/analyzer"
	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/docblock"
	"github.com/panbanda/cdensity/pkg/analyzer/scan"
	"github.com/panbanda/cdensity/pkg/analyzer/score"
	"github.com/panbanda/cdensity/pkg/analyzer/stats"
	"github.com/panbanda/cdensity/pkg/analyzer/symbols"
	"github.com/panbanda/cdensity/pkg/config"
	"github.com/panbanda/cdensity/pkg/parser"
	"github.com/panbanda/cdensity/pkg/source"
)

// Analyzer computes comment density reports.
type Analyzer struct {
	docs       docblock.Config
	thresholds stats.Thresholds
	allowed    []comments.Category
	files      fileproc.Options
	cache      *cache.Cache
	baseline   *baseline.Baseline
	logger     *slog.Logger
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithConfig applies the analysis settings of a loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) {
		if cfg == nil {
			return
		}
		a.docs = cfg.MissingDocblock
		a.thresholds = cfg.StatsThresholds()
		a.allowed = cfg.AllowedCategories()
		a.files = fileproc.Options{Workers: cfg.Workers, MaxFileSize: cfg.MaxFileSize}
	}
}

// WithDocBlockConfig sets which declarations require a doc comment.
func WithDocBlockConfig(cfg docblock.Config) Option {
	return func(a *Analyzer) {
		a.docs = cfg
	}
}

// WithThresholds sets the limits checked against the result.
func WithThresholds(t stats.Thresholds) Option {
	return func(a *Analyzer) {
		a.thresholds = t
	}
}

// WithWorkers sets the number of files processed concurrently.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.files.Workers = n
	}
}

// WithMaxFileSize skips files larger than size bytes.
func WithMaxFileSize(size int64) Option {
	return func(a *Analyzer) {
		a.files.MaxFileSize = size
	}
}

// WithCache reuses scan results of unchanged files.
func WithCache(c *cache.Cache) Option {
	return func(a *Analyzer) {
		a.cache = c
	}
}

// WithBaseline drops findings recorded in b from the report.
func WithBaseline(b *baseline.Baseline) Option {
	return func(a *Analyzer) {
		a.baseline = b
	}
}

// WithAllowedCategories restricts findings to the given categories.
func WithAllowedCategories(cats ...comments.Category) Option {
	return func(a *Analyzer) {
		a.allowed = cats
	}
}

// WithLogger sets the logger for per-file diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an analyzer. Without options every declaration kind requires a
// doc comment, no thresholds apply and all categories are reported.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		docs:   docblock.DefaultConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type fileResult struct {
	path   string
	result cache.Result
}

// Analyze indexes and scans files read from src. A nil src reads the
// filesystem. Files that cannot be read or parsed are recorded in the
// report's Errors and skipped; only cancellation and unclassifiable findings
// fail the run.
func (a *Analyzer) Analyze(ctx context.Context, files []string, src source.ContentSource) (*Report, error) {
	if src == nil {
		src = source.NewFilesystem()
	}
	tracker := analyzer.TrackerFromContext(ctx)

	if tracker != nil {
		tracker.Begin(analyzer.PhaseIndex, len(files))
	}
	table, err := a.index(ctx, files, src)
	if err != nil {
		return nil, err
	}

	if tracker != nil {
		tracker.Begin(analyzer.PhaseAnalyze, len(files))
	}
	scanner := scan.New(table, a.docs, a.allowed...)
	digest := table.Digest()
	settings := fmt.Sprintf("%+v|%v", a.docs, a.allowed)

	results, errs := fileproc.MapSource(ctx, files, src, a.files,
		func(psr *parser.Parser, path string, content []byte) (fileResult, error) {
			fingerprint := cache.Fingerprint(content, digest, settings)
			if cached, ok := a.cache.Get(path, fingerprint); ok {
				a.logger.Debug("cache hit", "path", path)
				return fileResult{path: path, result: cached}, nil
			}

			res, err := psr.ParseCtx(ctx, content, path)
			if err != nil {
				return fileResult{}, err
			}
			defer res.Close()

			r := cache.Result{Findings: scanner.Scan(res), LOC: parser.CountLines(content)}
			if err := a.cache.Set(path, fingerprint, r); err != nil {
				a.logger.Warn("cache write failed", "path", path, "error", err)
			}
			return fileResult{path: path, result: r}, nil
		})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report, err := a.build(results)
	if err != nil {
		return nil, err
	}
	if errs.HasErrors() {
		for _, e := range errs.Errors {
			a.logger.Warn("file skipped", "path", e.Path, "error", e.Err)
			report.Errors = append(report.Errors, FileError{Path: e.Path, Message: e.Err.Error()})
		}
	}
	if c, ok := src.(interface{ Commit() string }); ok {
		report.Commit = c.Commit()
	}
	return report, nil
}

// index builds the symbol table of every declaration in files on top of the
// builtin types. Unreadable files are skipped here and reported by the scan
// pass.
func (a *Analyzer) index(ctx context.Context, files []string, src source.ContentSource) (*symbols.Table, error) {
	tables, errs := fileproc.MapSource(ctx, files, src, a.files,
		func(psr *parser.Parser, path string, content []byte) (*symbols.Table, error) {
			res, err := psr.ParseCtx(ctx, content, path)
			if err != nil {
				return nil, err
			}
			defer res.Close()
			return symbols.Index(res), nil
		})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errs.HasErrors() {
		a.logger.Debug("index pass skipped files", "count", len(errs.Errors))
	}

	table := symbols.NewWithBuiltins()
	for _, t := range tables {
		table.Merge(t)
	}
	return table, nil
}

func (a *Analyzer) build(results []fileResult) (*Report, error) {
	report := &Report{Files: make([]FileReport, 0, len(results))}
	parts := make([][]stats.CategoryStatistic, 0, len(results))
	scores := make([]float64, 0, len(results))

	for _, fr := range results {
		findings := fr.result.Findings
		if a.baseline != nil {
			var suppressed int
			findings, suppressed = a.baseline.Filter(findings)
			report.Suppressed += suppressed
		}

		fileStats, err := stats.Aggregate(findings)
		if err != nil {
			return nil, err
		}
		cds := score.CDS(fileStats)

		report.Findings = append(report.Findings, findings...)
		report.TotalLOC += fr.result.LOC
		report.Files = append(report.Files, FileReport{
			Path:       fr.path,
			LOC:        fr.result.LOC,
			Findings:   len(findings),
			CDS:        cds,
			Statistics: fileStats,
		})
		parts = append(parts, fileStats)
		scores = append(scores, cds)
	}

	report.Score = score.Score(stats.Merge(parts...), report.TotalLOC, a.thresholds)
	report.Distribution = score.Summarize(scores)
	return report, nil
}
