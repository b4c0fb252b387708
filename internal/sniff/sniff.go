// Package sniff classifies raw file bytes plus a filename hint into a
// content format. Detection is deterministic and side-effect free: magic
// bytes win over the extension, the extension wins over the system MIME
// table, and anything else is treated as plain text.
package sniff

import (
	"bytes"
	"mime"
	"path/filepath"
	"strings"

	"github.com/quotify/rfq-extractor/constants"
)

var (
	magicPDF  = []byte("%PDF")
	magicZIP  = []byte("PK\x03\x04")
	magicJPEG = []byte{0xFF, 0xD8, 0xFF}
	magicPNG  = []byte{0x89, 'P', 'N', 'G'}
	magicGIF  = []byte("GIF8")
	magicOLE  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Sniffer resolves the content format of a source file.
type Sniffer struct{}

func New() *Sniffer {
	return &Sniffer{}
}

// Detect classifies data + filename into a Format.
func (s *Sniffer) Detect(data []byte, filename string) constants.Format {
	ext := constants.NormalizeExt(filepath.Ext(filename))

	if f, ok := detectMagic(data, ext); ok {
		return f
	}

	if f := constants.MapExtToFormat(ext); f != constants.UNKNOWN {
		return f
	}

	if ext != "" {
		if mt := mime.TypeByExtension("." + ext); mt != "" {
			if f := mapMIMEToFormat(mt); f != constants.UNKNOWN {
				return f
			}
		}
	}

	return constants.TEXT
}

// detectMagic matches well-known file signatures. The zip and OLE headers
// are containers shared by several formats, so the extension disambiguates.
func detectMagic(data []byte, ext string) (constants.Format, bool) {
	switch {
	case bytes.HasPrefix(data, magicPDF):
		return constants.PDF, true
	case bytes.HasPrefix(data, magicJPEG),
		bytes.HasPrefix(data, magicPNG),
		bytes.HasPrefix(data, magicGIF):
		return constants.IMAGE, true
	case bytes.HasPrefix(data, magicZIP):
		switch ext {
		case "docx":
			return constants.DOCX, true
		case "xlsx", "xlsm":
			return constants.XLSX, true
		default:
			return constants.ZIP, true
		}
	case bytes.HasPrefix(data, magicOLE):
		// Legacy Office container (.doc / .xls).
		if ext == "xls" {
			return constants.XLSX, true
		}
		return constants.DOCX, true
	}
	return constants.UNKNOWN, false
}

func mapMIMEToFormat(mt string) constants.Format {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	mt = strings.TrimSpace(strings.ToLower(mt))
	switch {
	case mt == "application/pdf":
		return constants.PDF
	case mt == "application/zip":
		return constants.ZIP
	case mt == "text/csv":
		return constants.CSV
	case strings.HasPrefix(mt, "image/"):
		return constants.IMAGE
	case strings.HasPrefix(mt, "text/"):
		return constants.TEXT
	case strings.Contains(mt, "spreadsheet"), strings.Contains(mt, "ms-excel"):
		return constants.XLSX
	case strings.Contains(mt, "wordprocessing"), strings.Contains(mt, "msword"):
		return constants.DOCX
	}
	return constants.UNKNOWN
}
