package deserialize

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
)

// maxMemberSize caps how much is read from a single archive member,
// guarding against zip-bomb style expansion.
const maxMemberSize = 64 << 20

// expandZip unpacks archive bytes into child source files at depth+1.
// Directories are skipped silently, unreadable members with a warning;
// member order is kept.
func expandZip(src SourceFile, logger *slog.Logger) ([]SourceFile, error) {
	if logger == nil {
		logger = slog.Default()
	}
	zr, err := zip.NewReader(bytes.NewReader(src.Content), int64(len(src.Content)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var members []SourceFile
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Base(f.Name)
		if strings.HasPrefix(name, ".") || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			logger.Warn("deserialize.archive.member_skipped",
				"archive", src.Filename, "member", f.Name, "error", err)
			continue
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxMemberSize))
		rc.Close()
		if err != nil {
			logger.Warn("deserialize.archive.member_skipped",
				"archive", src.Filename, "member", f.Name, "error", err)
			continue
		}

		members = append(members, SourceFile{
			Filename: src.Filename + "/" + f.Name,
			Content:  content,
			Depth:    src.Depth + 1,
		})
	}
	return members, nil
}
