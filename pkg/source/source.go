// Package source abstracts where analyzed file content comes from: the
// working tree or a git revision.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/panbanda/cdensity/pkg/parser"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ErrNotInRevision is returned for paths outside the repository or absent
// from the revision.
var ErrNotInRevision = errors.New("file not in revision")

// TreeSource reads files from the tree of a git commit without checking it
// out. It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	root   string
	commit string
	tree   *object.Tree
	mu     sync.Mutex
}

// OpenRevision opens the repository containing path and resolves rev (a
// branch, tag, hash or expression such as HEAD~2).
func OpenRevision(path, rev string) (*TreeSource, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree of %s: %w", hash, err)
	}

	root, err := filepath.Abs(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	return &TreeSource{root: root, commit: hash.String(), tree: tree}, nil
}

// Root returns the repository's working tree directory.
func (t *TreeSource) Root() string {
	return t.root
}

// Commit returns the full hash of the resolved revision.
func (t *TreeSource) Commit() string {
	return t.commit
}

// Read implements ContentSource. Paths may be absolute or relative to the
// repository root.
func (t *TreeSource) Read(path string) ([]byte, error) {
	rel, err := t.relative(path)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := t.tree.File(rel)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s: %w", rel, ErrNotInRevision)
		}
		return nil, err
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

// Files lists the PHP files of the revision below dir, as absolute paths in
// lexical order.
func (t *TreeSource) Files(dir string) ([]string, error) {
	prefix, err := t.relative(dir)
	if err != nil {
		return nil, err
	}
	if prefix == "." {
		prefix = ""
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var files []string
	err = t.tree.Files().ForEach(func(f *object.File) error {
		if !f.Mode.IsFile() || parser.DetectLanguage(f.Name) == parser.LangUnknown {
			return nil
		}
		if prefix != "" && !hasDirPrefix(f.Name, prefix) {
			return nil
		}
		files = append(files, filepath.Join(t.root, filepath.FromSlash(f.Name)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (t *TreeSource) relative(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path)), nil
	}
	rel, err := filepath.Rel(t.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, ErrNotInRevision)
	}
	return filepath.ToSlash(rel), nil
}

func hasDirPrefix(name, dir string) bool {
	return strings.HasPrefix(name, dir+"/")
}
