package baseline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
)

func findings(root string) []comments.Finding {
	return []comments.Finding{
		{Category: comments.CategoryRegular, Color: comments.ColorRed, File: filepath.Join(root, "src/a.php"), Line: 3, Text: "// old"},
		{Category: comments.CategoryTodo, Color: comments.ColorYellow, File: filepath.Join(root, "src/a.php"), Line: 9, Text: "# TODO later  "},
		comments.NewMissingDocBlock(filepath.Join(root, "src/b.php"), 4),
	}
}

func TestBuildAndFilter(t *testing.T) {
	root := t.TempDir()
	old := findings(root)
	b := Build(root, old)
	assert.Equal(t, uint64(3), b.Len())

	added := comments.NewMissingDocBlock(filepath.Join(root, "src/b.php"), 20)
	current := append([]comments.Finding{added}, old...)

	kept, suppressed := b.Filter(current)
	assert.Equal(t, []comments.Finding{added}, kept)
	assert.Equal(t, 3, suppressed)
}

func TestFingerprint(t *testing.T) {
	b := New("/repo")
	f := comments.Finding{Category: comments.CategoryTodo, File: "/repo/a.php", Line: 2, Text: "// TODO x"}

	same := f
	same.Text = "  // TODO x\n"
	assert.Equal(t, b.Fingerprint(f), b.Fingerprint(same), "surrounding whitespace is ignored")

	relative := f
	relative.File = "a.php"
	assert.Equal(t, b.Fingerprint(f), b.Fingerprint(relative))

	for _, mutate := range []func(*comments.Finding){
		func(x *comments.Finding) { x.Line = 3 },
		func(x *comments.Finding) { x.Category = comments.CategoryFixme },
		func(x *comments.Finding) { x.File = "/repo/b.php" },
		func(x *comments.Finding) { x.Text = "// TODO y" },
	} {
		other := f
		mutate(&other)
		assert.NotEqual(t, b.Fingerprint(f), b.Fingerprint(other))
	}
}

func TestSaveLoad(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".cdensity", "baseline.bin")

	require.NoError(t, Build(root, findings(root)).Save(path))

	loaded, err := Load(root, path)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), loaded.Len())

	kept, suppressed := loaded.Filter(findings(root))
	assert.Empty(t, kept)
	assert.Equal(t, 3, suppressed)
}

func TestLoadMovedRoot(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	var buf bytes.Buffer
	_, err := Build(first, findings(first)).WriteTo(&buf)
	require.NoError(t, err)

	moved, err := Read(second, &buf)
	require.NoError(t, err)
	kept, _ := moved.Filter(findings(second))
	assert.Empty(t, kept)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir, filepath.Join(dir, "missing.bin"))
	assert.Error(t, err)

	bogus := filepath.Join(dir, "bogus.bin")
	require.NoError(t, os.WriteFile(bogus, []byte("not a baseline"), 0o600))
	_, err = Load(dir, bogus)
	assert.ErrorIs(t, err, ErrInvalidFormat)

	truncated := filepath.Join(dir, "truncated.bin")
	require.NoError(t, os.WriteFile(truncated, magic[:3], 0o600))
	_, err = Load(dir, truncated)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestNilFilter(t *testing.T) {
	var b *Baseline
	in := findings("")
	kept, suppressed := b.Filter(in)
	assert.Equal(t, in, kept)
	assert.Zero(t, suppressed)
}
