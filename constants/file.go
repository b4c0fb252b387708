package constants

// AllowedExtensions holds the default allowed file extensions for RFQ ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"doc":  {},
	"docx": {},
	"xls":  {},
	"xlsx": {},
	"csv":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"zip":  {},
	"txt":  {},
	"md":   {},
}

// MinTextLength is the minimal non-whitespace character count below which
// primary PDF/DOCX extraction is considered near-empty and the OCR fallback
// is consulted.
const MinTextLength = 40

// MaxArchiveDepth caps recursive zip expansion.
const MaxArchiveDepth = 5
