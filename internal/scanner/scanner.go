// Package scanner finds the PHP files to analyze.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/cdensity/pkg/config"
	"github.com/panbanda/cdensity/pkg/parser"
)

// Scanner finds PHP files in a directory tree.
type Scanner struct {
	config  *config.Config
	matcher gitignore.Matcher
	// gitRoot is the repository the matcher patterns are relative to.
	gitRoot string
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore of the repository containing root.
func (s *Scanner) loadGitignore(root string) {
	s.matcher, s.gitRoot = nil, ""
	if !s.config.Exclude.Gitignore {
		return
	}
	gitRoot := findGitRoot(root)
	if gitRoot == "" {
		return
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.matcher = gitignore.NewMatcher(patterns)
	s.gitRoot = gitRoot
}

// isIgnored checks an absolute path against the loaded .gitignore files.
func (s *Scanner) isIgnored(path string, isDir bool) bool {
	if s.matcher == nil {
		return false
	}
	rel, err := filepath.Rel(s.gitRoot, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return s.matcher.Match(strings.Split(rel, string(filepath.Separator)), isDir)
}

// isExcluded applies the configured exclusions to a root-relative path.
func (s *Scanner) isExcluded(rel string, isDir bool) bool {
	if rel == "." {
		return false
	}
	if isDir {
		// ShouldExclude matches directories by a trailing component
		rel += string(filepath.Separator)
	}
	return s.config.ShouldExclude(rel)
}

// ScanDir recursively scans a directory for PHP files and returns their
// absolute paths, sorted. Symlinks that resolve outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	// Resolve any symlinks in the root path
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadGitignore(realRoot)

	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, realRoot) {
				return nil
			}
		}

		rel, _ := filepath.Rel(absRoot, path)
		real := filepath.Join(realRoot, rel)

		if d.IsDir() {
			if s.isExcluded(rel, true) || s.isIgnored(real, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(rel, false) || s.isIgnored(real, false) {
			return nil
		}
		if parser.DetectLanguage(path) == parser.LangPHP {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	return files, walkErr
}

// ScanPaths scans every directory and accepts every PHP file of paths,
// returning the sorted union without duplicates.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			files, err := s.ScanDir(p)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(f)
			}
			continue
		}
		ok, err := s.ScanFile(p)
		if err != nil {
			return nil, err
		}
		if ok {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, err
			}
			add(abs)
		}
	}

	sort.Strings(out)
	return out, nil
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanFile checks if a single file should be analyzed. Files named
// explicitly are only held to the configured patterns.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if s.config.ShouldExclude(filepath.Base(path)) {
		return false, nil
	}
	return parser.DetectLanguage(path) == parser.LangPHP, nil
}

// FilterBySize filters files that exceed the configured maximum size.
// Returns the filtered list and the count of files that were skipped.
// If maxSize is 0, returns the original list unchanged.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, skipped
}
