// Package cache stores per-file scan results on disk so unchanged files are
// not scanned again.
package cache

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
)

// Cache provides file-based caching of scan results.
// It is safe for concurrent use; concurrent writers of one key race benignly.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Result is what a scan of one file produces.
type Result struct {
	Findings []comments.Finding `json:"findings"`
	LOC      int                `json:"loc"`
}

// Entry represents a cached scan result.
type Entry struct {
	Path        string    `json:"path"`
	Fingerprint string    `json:"fingerprint"`
	Timestamp   time.Time `json:"timestamp"`
	Result      Result    `json:"result"`
}

// New creates a new cache instance. A disabled cache never hits and never
// writes.
func New(dir string, ttl time.Duration, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:     dir,
		ttl:     ttl,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache reads and writes entries.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// Fingerprint identifies a scan input: the file content, the digest of the
// symbol table it was resolved against and the analysis settings.
func Fingerprint(content []byte, digest uint64, settings string) string {
	h := blake3.New()
	_, _ = h.Write(content)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], digest)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(settings))
	return hex.EncodeToString(h.Sum(nil))
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get returns the cached result for path if it was stored under the same
// fingerprint and has not expired.
func (c *Cache) Get(path, fingerprint string) (Result, bool) {
	if !c.Enabled() {
		return Result{}, false
	}

	file := c.keyPath(path)
	data, err := os.ReadFile(file)
	if err != nil {
		return Result{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Result{}, false
	}
	if entry.Fingerprint != fingerprint || entry.Path != path {
		return Result{}, false
	}
	if c.ttl > 0 && time.Since(entry.Timestamp) > c.ttl {
		_ = os.Remove(file)
		return Result{}, false
	}

	return entry.Result, true
}

// Set stores the result for path under fingerprint.
func (c *Cache) Set(path, fingerprint string, result Result) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(Entry{
		Path:        path,
		Fingerprint: fingerprint,
		Timestamp:   time.Now(),
		Result:      result,
	})
	if err != nil {
		return err
	}

	// write then rename so readers never see a partial entry
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.keyPath(path))
}

// Invalidate removes the entry of path.
func (c *Cache) Invalidate(path string) error {
	if !c.Enabled() {
		return nil
	}
	err := os.Remove(c.keyPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.Enabled() {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath converts a file path to its entry path.
func (c *Cache) keyPath(path string) string {
	return filepath.Join(c.dir, HashBytes([]byte(path))+".json")
}

// Stats describes the cache directory.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.Enabled() {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}
