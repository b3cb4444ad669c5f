// Package testutil provides shared test helpers for taskman.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// FindRepoRoot walks up from the current working directory to the directory
// containing go.mod.
func FindRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("cannot get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repository root (no go.mod found)")
		}
		dir = parent
	}
}

// BuildBinary compiles the main package at pkg (relative to the repository
// root, e.g. "./cmd/taskman") into a temp directory and returns its path.
func BuildBinary(t *testing.T, pkg string) string {
	t.Helper()
	binary := filepath.Join(t.TempDir(), filepath.Base(pkg))
	cmd := exec.Command("go", "build", "-o", binary, pkg)
	cmd.Dir = FindRepoRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("go build %s failed: %v\n%s", pkg, err, out)
	}
	return binary
}
