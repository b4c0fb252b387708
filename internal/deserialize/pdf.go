package deserialize

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/quotify/rfq-extractor/constants"
)

// extractPDF pulls per-page text from PDF bytes, each page preceded by a
// page marker. Returns the page count alongside the text.
func extractPDF(data []byte) (text string, pages int, err error) {
	// the pdf library panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	total := r.NumPage()
	var b strings.Builder
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// a single unreadable page does not fail the document
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s%d%s\n", constants.PageMarkerPrefix, i, constants.PageMarkerSuffix)
		b.WriteString(content)
	}

	return b.String(), total, nil
}
