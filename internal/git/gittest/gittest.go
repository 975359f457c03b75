// Package gittest creates local git repositories for tests.
package gittest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CreateTestRepo creates a repository in a temporary directory with one
// commit holding files (path to content). It returns the repository path and
// the commit hash.
func CreateTestRepo(t *testing.T, files map[string]string) (string, plumbing.Hash) {
	t.Helper()

	repoDir := t.TempDir()
	return repoDir, InitRepo(t, repoDir, files)
}

// InitRepo initializes a repository at repoDir, creating the directory, and
// commits files to it. It returns the commit hash.
func InitRepo(t *testing.T, repoDir string, files map[string]string) plumbing.Hash {
	t.Helper()

	if _, err := git.PlainInit(repoDir, false); err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}
	return CommitFiles(t, repoDir, "Initial commit", files)
}

// CommitFiles writes files into the repository at repoDir and commits them
func CommitFiles(t *testing.T, repoDir, message string, files map[string]string) plumbing.Hash {
	t.Helper()

	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}

	workTree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	for filename, content := range files {
		filePath := filepath.Join(repoDir, filename)
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", filename, err)
		}
		if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file %s: %v", filename, err)
		}
		if _, err := workTree.Add(filename); err != nil {
			t.Fatalf("Failed to add file %s: %v", filename, err)
		}
	}

	hash, err := workTree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
		},
	})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	return hash
}
