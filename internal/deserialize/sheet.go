package deserialize

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/quotify/rfq-extractor/constants"
)

// extractWorkbook renders every sheet of an xlsx/xls workbook as
// tab-separated rows under a sheet header marker. Fully blank rows are
// skipped.
func extractWorkbook(data []byte) (string, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", 0, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var b strings.Builder
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", 0, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s%s%s\n", constants.SheetMarkerPrefix, sheet, constants.SheetMarkerSuffix)
		writeRows(&b, rows)
	}
	return b.String(), len(sheets), nil
}

// extractCSV renders comma/semicolon separated values as tab-separated rows.
func extractCSV(data []byte) (string, error) {
	text, _ := decodeText(data)

	sep := ','
	// semicolon-delimited exports are common for European locales
	if firstLine := strings.SplitN(text, "\n", 2)[0]; strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		sep = ';'
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}

	var b strings.Builder
	writeRows(&b, rows)
	return b.String(), nil
}

func writeRows(b *strings.Builder, rows [][]string) {
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
