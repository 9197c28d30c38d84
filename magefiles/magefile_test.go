//go:build mage

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCountGoLines(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a\n\nfunc A() {}\n")
	writeFile(t, filepath.Join(root, "a_test.go"), "package a\n\n\nfunc TestA() {}\n")
	writeFile(t, filepath.Join(root, "_examples", "b.go"), "package b\n")
	writeFile(t, filepath.Join(root, "notes.md"), "not go\n")

	prod, tests, err := countGoLines(root)
	require.NoError(t, err)
	assert.Equal(t, 2, prod)
	assert.Equal(t, 2, tests)
}

func TestCountFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "graphs", "one-graph.yaml"), "claims: []\n")
	writeFile(t, filepath.Join(root, "graphs", "two-graph.JSON"), "{}")
	writeFile(t, filepath.Join(root, "graphs", "README"), "")

	n, err := countFiles(filepath.Join(root, "graphs"), ".yaml", ".yml", ".json")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = countFiles(filepath.Join(root, "missing"), ".txt")
	require.NoError(t, err)
	assert.Zero(t, n)
}
