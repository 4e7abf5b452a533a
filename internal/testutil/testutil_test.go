package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	dir := Project(t, map[string]string{
		"src/a.php":   "<?php",
		"lib/b/c.php": "<?php // c",
	})

	assert.Equal(t, []string{
		filepath.Join(dir, "lib", "b", "c.php"),
		filepath.Join(dir, "src", "a.php"),
	}, ListFiles(t, dir))

	content, err := os.ReadFile(filepath.Join(dir, "lib", "b", "c.php"))
	require.NoError(t, err)
	assert.Equal(t, "<?php // c", string(content))
}

func TestCommit(t *testing.T) {
	root := t.TempDir()
	first := Commit(t, root, map[string]string{"a.php": "<?php // 1"}, "first")
	second := Commit(t, root, map[string]string{"a.php": "<?php // 2"}, "second")

	assert.Len(t, first, 40)
	assert.NotEqual(t, first, second)

	repo, err := git.PlainOpen(root)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, second, head.Hash().String())
}
