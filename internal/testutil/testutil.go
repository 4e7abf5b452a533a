// Package testutil builds PHP project fixtures on disk and in git.
package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// CreateFileTree writes every file of files, keyed by slash path, below root.
func CreateFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
	}
}

// Project writes files into a new temporary directory and returns it.
func Project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	CreateFileTree(t, dir, files)
	return dir
}

// ListFiles returns every regular file below root, sorted.
func ListFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir(%s) error: %v", root, err)
	}
	sort.Strings(files)
	return files
}

// Commit writes files below root and commits them, creating the repository
// on first use. It returns the commit hash.
func Commit(t *testing.T, root string, files map[string]string, msg string) string {
	t.Helper()
	repo, err := git.PlainOpen(root)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(root, false)
	}
	if err != nil {
		t.Fatalf("open repository %s: %v", root, err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree error: %v", err)
	}

	CreateFileTree(t, root, files)
	for name := range files {
		if _, err := w.Add(name); err != nil {
			t.Fatalf("Add(%s) error: %v", name, err)
		}
	}

	hash, err := w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	return hash.String()
}
