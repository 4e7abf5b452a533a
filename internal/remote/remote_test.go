package remote

import (
	"context"
	"os/exec"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/cdensity/internal/testutil"
)

func TestParse_LocalPath(t *testing.T) {
	assert.Nil(t, Parse(t.TempDir()))
	assert.Nil(t, Parse(""))
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		wantURL string
		wantRef string
	}{
		{"laravel/framework", "https://github.com/laravel/framework", ""},
		{"laravel/framework@v11.0.0", "https://github.com/laravel/framework", "v11.0.0"},
		{"owner/repo@feature-branch", "https://github.com/owner/repo", "feature-branch"},
		{"https://gitlab.com/group/project.git", "https://gitlab.com/group/project.git", ""},
		{"https://gitlab.com/group/project.git@main", "https://gitlab.com/group/project.git", "main"},
		{"git@github.com:owner/repo.git", "git@github.com:owner/repo.git", ""},
		{"git@github.com:owner/repo.git@abc123", "git@github.com:owner/repo.git", "abc123"},
		{"file:///srv/git/app", "file:///srv/git/app", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			src := Parse(tt.input)
			require.NotNil(t, src)
			assert.Equal(t, tt.wantURL, src.URL)
			assert.Equal(t, tt.wantRef, src.Ref)
		})
	}
}

func TestParse_NotRemote(t *testing.T) {
	for _, input := range []string{
		"src",
		"./missing/dir",
		"../app",
		"a/b/c",
		"/abs/missing",
		"example.com/repo/x",
	} {
		assert.Nil(t, Parse(input), input)
	}
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "framework", (&Source{URL: "https://github.com/laravel/framework"}).Name())
	assert.Equal(t, "repo", (&Source{URL: "git@github.com:owner/repo.git"}).Name())
	assert.Equal(t, "project", (&Source{URL: "https://gitlab.com/group/project/"}).Name())
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "https://github.com/a/b", (&Source{URL: "https://github.com/a/b"}).String())
	assert.Equal(t, "https://github.com/a/b@v1", (&Source{URL: "https://github.com/a/b", Ref: "v1"}).String())
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("local clones need git-upload-pack")
	}
}

func TestClone(t *testing.T) {
	requireGit(t)
	origin := t.TempDir()
	first := testutil.Commit(t, origin, map[string]string{"a.php": "<?php // one"}, "first")

	repo, err := git.PlainOpen(origin)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewTagReferenceName("v1"), head.Hash())))

	second := testutil.Commit(t, origin, map[string]string{"a.php": "<?php // two"}, "second")

	got, err := (&Source{URL: origin, Ref: "v1"}).Clone(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, first, got)

	branch := head.Name().Short()
	got, err = (&Source{URL: origin, Ref: branch}).Clone(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestClone_MissingRef(t *testing.T) {
	requireGit(t)
	origin := t.TempDir()
	testutil.Commit(t, origin, map[string]string{"a.php": "<?php"}, "first")

	_, err := (&Source{URL: origin, Ref: "no-such-ref"}).Clone(context.Background(), t.TempDir())
	assert.Error(t, err)
}
