// Package baseline records the findings of an accepted state so later runs
// only report what is new.
package baseline

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/cespare/xxhash/v2"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
)

var magic = []byte("CDSBASE1")

// ErrInvalidFormat is returned when a file is not a baseline.
var ErrInvalidFormat = errors.New("baseline: invalid file format")

// Baseline is a set of finding fingerprints. Paths are recorded relative to
// root so a baseline survives moving the checkout.
type Baseline struct {
	root string
	set  *roaring64.Bitmap
}

// New returns an empty baseline for findings under root.
func New(root string) *Baseline {
	return &Baseline{root: root, set: roaring64.New()}
}

// Build returns a baseline containing every finding.
func Build(root string, findings []comments.Finding) *Baseline {
	b := New(root)
	for _, f := range findings {
		b.Add(f)
	}
	return b
}

// Fingerprint identifies a finding by file, category, line and trimmed text.
func (b *Baseline) Fingerprint(f comments.Finding) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(b.relative(f.File))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(string(f.Category))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(strconv.FormatUint(uint64(f.Line), 10))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(strings.TrimSpace(f.Text))
	return d.Sum64()
}

func (b *Baseline) relative(path string) string {
	if b.root == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(b.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Add records f.
func (b *Baseline) Add(f comments.Finding) {
	b.set.Add(b.Fingerprint(f))
}

// Contains reports whether f was recorded.
func (b *Baseline) Contains(f comments.Finding) bool {
	return b.set.Contains(b.Fingerprint(f))
}

// Len returns the number of distinct fingerprints.
func (b *Baseline) Len() uint64 {
	return b.set.GetCardinality()
}

// Filter returns the findings that are not in the baseline, in their original
// order, and how many were suppressed.
func (b *Baseline) Filter(findings []comments.Finding) ([]comments.Finding, int) {
	if b == nil {
		return findings, 0
	}
	kept := make([]comments.Finding, 0, len(findings))
	for _, f := range findings {
		if b.Contains(f) {
			continue
		}
		kept = append(kept, f)
	}
	return kept, len(findings) - len(kept)
}

// WriteTo serializes the baseline.
func (b *Baseline) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(magic)
	if err != nil {
		return int64(n), err
	}
	m, err := b.set.WriteTo(w)
	return int64(n) + m, err
}

// Save writes the baseline to path.
func (b *Baseline) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create baseline directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create baseline: %w", err)
	}
	w := bufio.NewWriter(f)
	if _, err := b.WriteTo(w); err != nil {
		f.Close()
		return fmt.Errorf("write baseline: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write baseline: %w", err)
	}
	return f.Close()
}

// Read deserializes a baseline written by WriteTo.
func Read(root string, r io.Reader) (*Baseline, error) {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil || !bytes.Equal(header, magic) {
		return nil, ErrInvalidFormat
	}
	b := New(root)
	if _, err := b.set.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return b, nil
}

// Load reads the baseline at path.
func Load(root, path string) (*Baseline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open baseline: %w", err)
	}
	defer f.Close()
	return Read(root, bufio.NewReader(f))
}
