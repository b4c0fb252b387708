package constants

// Marker strings inserted during deserialization and batch concatenation.
// Downstream prompts reference these literally, so they are stable values.
const (
	// DocumentMarkerPrefix precedes each source document when several files
	// are combined into one extraction pass.
	DocumentMarkerPrefix = "===== Document: "
	DocumentMarkerSuffix = " ====="

	// PageMarkerPrefix precedes each extracted PDF page.
	PageMarkerPrefix = "--- Page "
	PageMarkerSuffix = " ---"

	// SheetMarkerPrefix precedes each spreadsheet sheet.
	SheetMarkerPrefix = "--- Sheet: "
	SheetMarkerSuffix = " ---"

	// TablesMarker precedes the tab-separated table block of a Word document.
	TablesMarker = "--- Tables ---"

	// ListItemPrefix tags list-style paragraphs in Word documents.
	ListItemPrefix = "• "
)
