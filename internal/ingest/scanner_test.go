package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rfq.txt", "need chairs")
	writeFile(t, dir, "nested/specs.csv", "item,qty\nchair,10")
	writeFile(t, dir, "ignore.exe", "binary")
	writeFile(t, dir, ".hidden/secret.txt", "skip me")

	files, stats, err := NewScanner(nil).ScanDirectory(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}
	assert.ElementsMatch(t, []string{"rfq.txt", "specs.csv"}, names)
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, 2, stats.Matched)
}

func TestScanDirectoryDeduplicatesByContent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "identical body")
	writeFile(t, dir, "copy/b.txt", "identical body")

	files, stats, err := NewScanner(nil).ScanDirectory(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, 1, stats.Deduplicated)
}

func TestScanDirectoryEmptyRoot(t *testing.T) {
	_, _, err := NewScanner(nil).ScanDirectory("  ")
	assert.Error(t, err)
}

func TestLoadFilesPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	p1 := writeFile(t, dir, "z-last.txt", "one")
	p2 := writeFile(t, dir, "a-first.txt", "two")

	files, err := NewScanner(nil).LoadFiles([]string{p1, p2})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "z-last.txt", files[0].Filename)
	assert.Equal(t, "a-first.txt", files[1].Filename)
}

func TestLoadFilesMissingFile(t *testing.T) {
	_, err := NewScanner(nil).LoadFiles([]string{filepath.Join(t.TempDir(), "absent.pdf")})
	assert.Error(t, err)
}
