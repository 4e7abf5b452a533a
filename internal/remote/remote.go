// Package remote clones repositories named on the command line.
package remote

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source represents a remote repository to analyze.
type Source struct {
	URL string // normalized git URL
	Ref string // branch, tag, or SHA (empty = default branch)
}

var (
	urlPrefixes = []string{"https://", "http://", "ssh://", "git://", "file://", "git@"}
	shorthand   = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9_.-]*/[A-Za-z0-9_.-]+$`)
)

// Parse detects a remote reference: a git URL or a GitHub owner/repo
// shorthand, optionally followed by @ref. It returns nil for anything else,
// and for paths that exist locally.
func Parse(arg string) *Source {
	if arg == "" {
		return nil
	}
	if _, err := os.Stat(arg); err == nil {
		return nil
	}

	ref := ""
	if at := strings.LastIndex(arg, "@"); at > strings.LastIndex(arg, "/") {
		ref = arg[at+1:]
		arg = arg[:at]
	}

	for _, prefix := range urlPrefixes {
		if strings.HasPrefix(arg, prefix) {
			return &Source{URL: arg, Ref: ref}
		}
	}
	if shorthand.MatchString(arg) && !strings.HasPrefix(arg, ".") {
		return &Source{URL: "https://github.com/" + arg, Ref: ref}
	}
	return nil
}

// Name returns the repository name, e.g. "react" for
// https://github.com/facebook/react.git.
func (s *Source) Name() string {
	name := strings.TrimSuffix(strings.TrimRight(s.URL, "/"), ".git")
	if i := strings.LastIndexAny(name, ":/"); i >= 0 {
		name = name[i+1:]
	}
	return path.Base(name)
}

func (s *Source) String() string {
	if s.Ref == "" {
		return s.URL
	}
	return s.URL + "@" + s.Ref
}

// Clone clones the repository into dir and returns the commit to analyze.
// Without a ref only the tip of the default branch is fetched.
func (s *Source) Clone(ctx context.Context, dir string) (string, error) {
	opts := &git.CloneOptions{URL: s.URL}
	if s.Ref == "" {
		opts.Depth = 1
		opts.SingleBranch = true
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return "", fmt.Errorf("clone %s: %w", s.URL, err)
	}

	rev := "HEAD"
	if s.Ref != "" {
		rev = s.Ref
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil && s.Ref != "" {
		hash, err = repo.ResolveRevision(plumbing.Revision("origin/" + s.Ref))
	}
	if err != nil {
		return "", fmt.Errorf("resolve %q in %s: %w", rev, s.URL, err)
	}
	return hash.String(), nil
}
