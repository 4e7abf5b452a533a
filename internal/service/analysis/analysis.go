// Package analysis wires configuration, file discovery, caching and
// baselines around the density analyzer. The CLI and the MCP server share it.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/panbanda/cdensity/internal/baseline"
	"github.com/panbanda/cdensity/internal/cache"
	"github.com/panbanda/cdensity/internal/remote"
	"github.com/panbanda/cdensity/internal/scanner"
	"github.com/panbanda/cdensity/pkg/analyzer"
	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/density"
	"github.com/panbanda/cdensity/pkg/analyzer/stats"
	"github.com/panbanda/cdensity/pkg/config"
	"github.com/panbanda/cdensity/pkg/source"
)

// Service orchestrates comment density analysis runs.
type Service struct {
	config *config.Config
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the logger passed on to the analyzer.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	return s
}

// Config returns the configuration runs start from.
func (s *Service) Config() *config.Config {
	return s.config
}

// Request describes one run. Zero fields fall back to the configuration.
type Request struct {
	// Paths are the files and directories to analyze.
	Paths []string
	// Rev reads files from a git revision instead of the working tree.
	Rev string
	// Only restricts the reported categories.
	Only []string
	// Thresholds override the configured limits key by key.
	Thresholds map[string]float64
	// Baseline names a baseline file. A missing file is an error, unlike
	// the configured baseline which is ignored until it is written.
	Baseline string
	// NoBaseline reports every finding.
	NoBaseline bool
	NoCache    bool
	Workers    int
	// Progress receives per-file progress of both phases.
	Progress analyzer.ProgressFunc
}

// Result is a finished run.
type Result struct {
	Report *density.Report
	// Root is the directory paths in the report are shown relative to.
	Root  string
	Files int
	// Remote is the cloned repository, nil for local paths.
	Remote *remote.Source
}

// Run analyzes the requested files.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	paths, err := s.config.Paths(req.Paths)
	if err != nil {
		return nil, err
	}
	for _, name := range req.Only {
		if _, ok := comments.Lookup(comments.Category(name)); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
	}

	var origin *remote.Source
	if len(paths) == 1 {
		if origin = remote.Parse(paths[0]); origin != nil {
			dir, err := os.MkdirTemp("", "cdensity-remote-*")
			if err != nil {
				return nil, err
			}
			defer os.RemoveAll(dir)

			// A revision other than the tip needs the full history.
			if origin.Ref == "" {
				origin.Ref = req.Rev
			}
			s.logger.Info("cloning", "source", origin.String(), "dir", dir)
			commit, err := origin.Clone(ctx, dir)
			if err != nil {
				return nil, &GitError{Err: err}
			}
			paths = []string{dir}
			req.Rev = commit
		}
	}

	files, src, root, err := s.discover(paths, req.Rev)
	if err != nil {
		return nil, err
	}

	opts := []density.Option{
		density.WithConfig(s.config),
		density.WithLogger(s.logger),
		density.WithThresholds(s.thresholds(req.Thresholds)),
	}
	if len(req.Only) > 0 {
		cats := make([]comments.Category, len(req.Only))
		for i, name := range req.Only {
			cats[i] = comments.Category(name)
		}
		opts = append(opts, density.WithAllowedCategories(cats...))
	}
	if req.Workers > 0 {
		opts = append(opts, density.WithWorkers(req.Workers))
	}

	// Cached results describe the working tree only.
	if s.config.Cache.Enabled && !req.NoCache && req.Rev == "" {
		c, err := cache.New(s.resolve(root, s.config.Cache.Dir), s.config.CacheTTL(), true)
		if err != nil {
			s.logger.Warn("cache disabled", "error", err)
		} else {
			opts = append(opts, density.WithCache(c))
		}
	}

	if !req.NoBaseline {
		b, err := s.loadBaseline(root, req.Baseline)
		if err != nil {
			return nil, err
		}
		if b != nil {
			opts = append(opts, density.WithBaseline(b))
		}
	}

	if req.Progress != nil {
		ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(req.Progress))
	}
	s.logger.Info("analyzing", "files", len(files), "root", root)

	report, err := density.New(opts...).Analyze(ctx, files, src)
	if err != nil {
		return nil, err
	}
	return &Result{Report: report, Root: root, Files: len(files), Remote: origin}, nil
}

// WriteBaseline records every current finding of the requested files in
// path, or in the configured baseline when path is empty. It returns the
// file written and the number of findings recorded.
func (s *Service) WriteBaseline(ctx context.Context, req Request, path string) (string, uint64, error) {
	if path == "" && s.config.Baseline == "" {
		return "", 0, ErrNoBaseline
	}
	req.NoBaseline = true
	res, err := s.Run(ctx, req)
	if err != nil {
		return "", 0, err
	}
	if path == "" {
		if res.Remote != nil {
			return "", 0, fmt.Errorf("%w: pass a file for %s", ErrNoBaseline, res.Remote)
		}
		path = s.resolve(res.Root, s.config.Baseline)
	}
	b := baseline.Build(res.Root, res.Report.Findings)
	if err := b.Save(path); err != nil {
		return "", 0, fmt.Errorf("write baseline: %w", err)
	}
	return path, b.Len(), nil
}

// ErrNoBaseline is returned when no baseline file is given or configured.
var ErrNoBaseline = errors.New("no baseline file configured")

// ErrUnknownCategory is returned for category names outside the fixed set.
var ErrUnknownCategory = errors.New("unknown category")

func (s *Service) thresholds(overrides map[string]float64) stats.Thresholds {
	merged := make(stats.Thresholds, len(s.config.Thresholds)+len(overrides))
	maps.Copy(merged, s.config.Thresholds)
	maps.Copy(merged, overrides)
	return merged
}

func (s *Service) loadBaseline(root, explicit string) (*baseline.Baseline, error) {
	path := explicit
	if path == "" {
		if s.config.Baseline == "" {
			return nil, nil
		}
		path = s.resolve(root, s.config.Baseline)
	}
	b, err := baseline.Load(root, path)
	if err != nil {
		if explicit == "" && errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("baseline not found", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	s.logger.Info("baseline loaded", "path", path, "findings", b.Len())
	return b, nil
}

// resolve makes a configured path relative to the analysis root absolute.
func (s *Service) resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// discover lists the PHP files below paths and picks the content source and
// display root.
func (s *Service) discover(paths []string, rev string) ([]string, source.ContentSource, string, error) {
	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, nil, "", &PathError{Path: p, Err: err}
		}
		abs[i] = a
	}

	if rev != "" {
		tree, err := source.OpenRevision(abs[0], rev)
		if err != nil {
			return nil, nil, "", &GitError{Err: err}
		}
		var files []string
		seen := make(map[string]bool)
		for _, p := range abs {
			found, err := tree.Files(p)
			if err != nil {
				return nil, nil, "", &ScanError{Path: p, Err: err}
			}
			for _, f := range found {
				rel, _ := filepath.Rel(tree.Root(), f)
				if seen[f] || s.config.ShouldExclude(rel) {
					continue
				}
				seen[f] = true
				files = append(files, f)
			}
		}
		return files, tree, tree.Root(), nil
	}

	for _, p := range abs {
		if _, err := os.Stat(p); err != nil {
			return nil, nil, "", &PathError{Path: p, Err: err}
		}
	}
	files, err := scanner.NewScanner(s.config).ScanPaths(abs)
	if err != nil {
		return nil, nil, "", &ScanError{Path: strings.Join(paths, ", "), Err: err}
	}
	return files, source.NewFilesystem(), findRoot(abs[0]), nil
}

// findRoot returns the worktree of the repository containing path, or path's
// directory outside a repository.
func findRoot(path string) string {
	dir := path
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = filepath.Dir(path)
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return dir
	}
	wt, err := repo.Worktree()
	if err != nil {
		return dir
	}
	return wt.Filesystem.Root()
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// GitError indicates the revision could not be read.
type GitError struct {
	Err error
}

func (e *GitError) Error() string {
	return "read revision: " + e.Err.Error()
}

func (e *GitError) Unwrap() error {
	return e.Err
}
