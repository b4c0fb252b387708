package constants

import "strings"

// Format is the detected content kind of a source file.
type Format string

const (
	PDF     Format = "PDF"
	DOCX    Format = "DOCX"
	XLSX    Format = "XLSX"
	CSV     Format = "CSV"
	IMAGE   Format = "IMAGE"
	ZIP     Format = "ZIP"
	TEXT    Format = "TEXT"
	UNKNOWN Format = "UNKNOWN"
)

// extToFormat maps normalized file extensions to formats.
var extToFormat = map[string]Format{
	"pdf":      PDF,
	"docx":     DOCX,
	"doc":      DOCX,
	"xlsx":     XLSX,
	"xls":      XLSX,
	"xlsm":     XLSX,
	"csv":      CSV,
	"tsv":      CSV,
	"jpg":      IMAGE,
	"jpeg":     IMAGE,
	"png":      IMAGE,
	"gif":      IMAGE,
	"bmp":      IMAGE,
	"tif":      IMAGE,
	"tiff":     IMAGE,
	"webp":     IMAGE,
	"zip":      ZIP,
	"txt":      TEXT,
	"text":     TEXT,
	"md":       TEXT,
	"markdown": TEXT,
	"rtf":      TEXT,
	"log":      TEXT,
	"json":     TEXT,
	"xml":      TEXT,
	"html":     TEXT,
	"htm":      TEXT,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat resolves a file extension to a Format, UNKNOWN if unmapped.
func MapExtToFormat(ext string) Format {
	if f, ok := extToFormat[NormalizeExt(ext)]; ok {
		return f
	}
	return UNKNOWN
}
