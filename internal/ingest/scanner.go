// Package ingest discovers RFQ source files on disk: a one-shot recursive
// directory scan and an fsnotify-based watcher for drop-folder setups.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/quotify/rfq-extractor/constants"
	"github.com/quotify/rfq-extractor/internal/deserialize"
)

// DirStats summarizes one directory scan.
type DirStats struct {
	Scanned      int
	Matched      int
	Loaded       int
	Deduplicated int
	Failed       int
}

// Scanner loads matching files from a directory tree into memory.
type Scanner struct {
	AllowedExts map[string]struct{}
	SkipHidden  bool
	MaxFileSize int64
	Logger      *slog.Logger
}

func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		AllowedExts: constants.AllowedExtensions,
		SkipHidden:  true,
		MaxFileSize: 128 << 20,
		Logger:      logger,
	}
}

// ScanDirectory walks root and returns one SourceFile per matching file, in
// walk order. Identical file contents (by SHA-256) are loaded once; an
// unreadable file is skipped with a warning, not fatal to the scan.
func (s *Scanner) ScanDirectory(root string) ([]deserialize.SourceFile, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var (
		files []deserialize.SourceFile
		stats DirStats
		seen  = map[string]string{}
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.Logger.Warn("ingest.scan.walk_error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if s.SkipHidden && isHidden(path) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !allowed(path, s.AllowedExts) {
			return nil
		}
		stats.Matched++

		if info, err := d.Info(); err == nil && s.MaxFileSize > 0 && info.Size() > s.MaxFileSize {
			s.Logger.Warn("ingest.scan.too_large", "path", path, "size", info.Size())
			stats.Failed++
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			s.Logger.Warn("ingest.scan.read_error", "path", path, "error", err)
			stats.Failed++
			return nil
		}

		sum := sha256.Sum256(content)
		digest := hex.EncodeToString(sum[:])
		if prev, dup := seen[digest]; dup {
			s.Logger.Info("ingest.scan.deduplicated", "path", path, "duplicate_of", prev)
			stats.Deduplicated++
			return nil
		}
		seen[digest] = path

		files = append(files, deserialize.SourceFile{
			Filename: filepath.Base(path),
			Content:  content,
		})
		stats.Loaded++
		return nil
	})
	if err != nil {
		return files, stats, err
	}

	s.Logger.Info("ingest.scan.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"loaded", stats.Loaded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return files, stats, nil
}

// LoadFiles reads explicit paths, preserving argument order.
func (s *Scanner) LoadFiles(paths []string) ([]deserialize.SourceFile, error) {
	files := make([]deserialize.SourceFile, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, deserialize.SourceFile{
			Filename: filepath.Base(p),
			Content:  content,
		})
	}
	return files, nil
}

func allowed(path string, exts map[string]struct{}) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := exts[ext]
	return ok
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
