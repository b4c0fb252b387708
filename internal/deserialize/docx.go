package deserialize

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/quotify/rfq-extractor/constants"
)

// extractDocx parses a .docx file by streaming word/document.xml from the
// ZIP container. Paragraphs come out in document order; list paragraphs get
// a leading bullet marker; tables are appended after a tables marker as
// tab-separated rows.
func extractDocx(data []byte) (string, int, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open zip: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", 0, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", 0, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	paragraphs, tables, err := walkDocumentXML(rc)
	if err != nil {
		return "", 0, err
	}

	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	if len(tables) > 0 {
		b.WriteByte('\n')
		b.WriteString(constants.TablesMarker)
		b.WriteByte('\n')
		for _, row := range tables {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
	}
	return b.String(), len(paragraphs), nil
}

// walkDocumentXML streams the OOXML body, separating body paragraphs from
// table rows. Paragraph text inside table cells only lands in the table.
func walkDocumentXML(r io.Reader) (paragraphs []string, tables [][]string, err error) {
	decoder := xml.NewDecoder(r)

	var (
		cell       strings.Builder
		paragraph  strings.Builder
		row        []string
		tableDepth int
		inParal    bool
		isListItem bool
	)

	for {
		tok, tokErr := decoder.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return nil, nil, fmt.Errorf("decode document.xml: %w", tokErr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				if tableDepth > 0 {
					row = row[:0]
				}
			case "tc":
				if tableDepth > 0 {
					cell.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inParal = true
					isListItem = false
					paragraph.Reset()
				}
			case "numPr":
				if inParal {
					isListItem = true
				}
			}

		case xml.CharData:
			if tableDepth > 0 {
				cell.Write(t)
			} else if inParal {
				paragraph.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				if tableDepth > 0 {
					tableDepth--
				}
			case "tr":
				if tableDepth > 0 && len(row) > 0 {
					tables = append(tables, append([]string(nil), row...))
				}
			case "tc":
				if tableDepth > 0 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
			case "p":
				if tableDepth == 0 && inParal {
					inParal = false
					text := strings.TrimSpace(paragraph.String())
					if text == "" {
						continue
					}
					if isListItem {
						text = constants.ListItemPrefix + text
					}
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}

	return paragraphs, tables, nil
}
