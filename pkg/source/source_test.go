package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/cdensity/internal/testutil"
)

func TestFilesystemSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.php")
	require.NoError(t, os.WriteFile(path, []byte("<?php echo 1;"), 0o644))

	src := NewFilesystem()
	content, err := src.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "<?php echo 1;", string(content))

	_, err = src.Read(filepath.Join(dir, "nonexistent.php"))
	assert.Error(t, err)
}

func TestTreeSource(t *testing.T) {
	root := t.TempDir()
	testutil.Commit(t, root, map[string]string{
		"src/a.php":     "<?php // first",
		"src/b.txt":     "not php",
		"lib/c.php":     "<?php // lib",
		"srcx/d.php":    "<?php // sibling",
		"README.md":     "# readme",
		"src/v/e.phtml": "<p>hi</p>",
	}, "initial")
	testutil.Commit(t, root, map[string]string{"src/a.php": "<?php // second"}, "second")

	head, err := OpenRevision(root, "HEAD")
	require.NoError(t, err)
	assert.Len(t, head.Commit(), 40)

	content, err := head.Read(filepath.Join(root, "src", "a.php"))
	require.NoError(t, err)
	assert.Equal(t, "<?php // second", string(content))

	prev, err := OpenRevision(filepath.Join(root, "src"), "HEAD~1")
	require.NoError(t, err)
	content, err = prev.Read("src/a.php")
	require.NoError(t, err)
	assert.Equal(t, "<?php // first", string(content))

	_, err = head.Read("src/missing.php")
	assert.ErrorIs(t, err, ErrNotInRevision)
	_, err = head.Read(filepath.Join(os.TempDir(), "elsewhere.php"))
	assert.ErrorIs(t, err, ErrNotInRevision)

	files, err := head.Files(filepath.Join(root, "src"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(head.Root(), "src", "a.php"),
		filepath.Join(head.Root(), "src", "v", "e.phtml"),
	}, files)

	all, err := head.Files(root)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = OpenRevision(root, "no-such-branch")
	assert.Error(t, err)
}
