package deserialize

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotify/rfq-extractor/constants"
	"github.com/quotify/rfq-extractor/internal/sniff"
)

type stubEngine struct {
	text  string
	err   error
	calls int
}

func (s *stubEngine) Recognize(context.Context, []byte, string) (string, error) {
	s.calls++
	return s.text, s.err
}

func newTestDeserializer(engine *stubEngine) *Deserializer {
	cfg := Config{OCREnabled: true, ArchiveEnabled: true}
	if engine == nil {
		engine = &stubEngine{}
	}
	return New(cfg, sniff.New(), engine, nil)
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDeserializePlainText(t *testing.T) {
	d := newTestDeserializer(nil)

	doc := d.Deserialize(context.Background(), SourceFile{
		Filename: "notes.txt",
		Content:  []byte("We need   200 chairs.\n\n\n\nDelivery in September."),
	}, constants.TEXT)

	assert.Equal(t, "We need 200 chairs.\n\nDelivery in September.", doc.Text)
	assert.Equal(t, constants.TEXT, doc.Format)
	assert.Equal(t, 7, doc.WordCount)
	assert.Empty(t, doc.Meta.Error)
	assert.Equal(t, "text-utf-8", doc.Meta.Method)
}

func TestDeserializeLatin1Text(t *testing.T) {
	d := newTestDeserializer(nil)

	// "Jalapeño" in latin-1: 0xF1 is not valid UTF-8
	raw := []byte{'J', 'a', 'l', 'a', 'p', 'e', 0xF1, 'o'}
	doc := d.Deserialize(context.Background(), SourceFile{Filename: "menu.txt", Content: raw}, constants.TEXT)

	assert.Equal(t, "Jalapeño", doc.Text)
	assert.Empty(t, doc.Meta.Error)
}

func TestDeserializeCSV(t *testing.T) {
	d := newTestDeserializer(nil)

	csvData := []byte("item,qty,unit\nchairs,200,pcs\n\ntables,25,pcs\n")
	doc := d.Deserialize(context.Background(), SourceFile{Filename: "items.csv", Content: csvData}, constants.CSV)

	require.Empty(t, doc.Meta.Error)
	assert.Contains(t, doc.Text, "item\tqty\tunit")
	assert.Contains(t, doc.Text, "chairs\t200\tpcs")
	assert.Contains(t, doc.Text, "tables\t25\tpcs")
	assert.Equal(t, 1, doc.Meta.Sheets)
}

func TestDeserializeSemicolonCSV(t *testing.T) {
	d := newTestDeserializer(nil)

	csvData := []byte("item;qty\nchairs;200\n")
	doc := d.Deserialize(context.Background(), SourceFile{Filename: "items.csv", Content: csvData}, constants.CSV)

	require.Empty(t, doc.Meta.Error)
	assert.Contains(t, doc.Text, "chairs\t200")
}

func TestDeserializeDocx(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Request for Quote: Annual Gala</w:t></w:r></w:p>
    <w:p>
      <w:pPr><w:numPr><w:ilvl w:val="0"/></w:numPr></w:pPr>
      <w:r><w:t>200 chairs</w:t></w:r>
    </w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Item</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Qty</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Tables</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>25</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

	d := newTestDeserializer(nil)
	doc := d.Deserialize(context.Background(), SourceFile{
		Filename: "rfq.docx",
		Content:  buildDocx(t, docXML),
	}, constants.DOCX)

	require.Empty(t, doc.Meta.Error)
	assert.Contains(t, doc.Text, "Request for Quote: Annual Gala")
	assert.Contains(t, doc.Text, constants.ListItemPrefix+"200 chairs")
	assert.Contains(t, doc.Text, constants.TablesMarker)
	assert.Contains(t, doc.Text, "Item\tQty")
	assert.Contains(t, doc.Text, "Tables\t25")
	assert.Equal(t, 2, doc.Meta.Paragraphs)
}

func TestDeserializeDocxMissingDocument(t *testing.T) {
	d := newTestDeserializer(nil)
	broken := buildZip(t, map[string][]byte{"unrelated.xml": []byte("<x/>")})

	doc := d.Deserialize(context.Background(), SourceFile{Filename: "broken.docx", Content: broken}, constants.DOCX)

	assert.Empty(t, doc.Text)
	assert.Contains(t, doc.Meta.Error, "word/document.xml")
}

func TestDeserializeImageUsesOCR(t *testing.T) {
	engine := &stubEngine{text: "Recognized quote text, 200 chairs needed for the gala."}
	d := newTestDeserializer(engine)

	doc := d.Deserialize(context.Background(), SourceFile{
		Filename: "scan.png",
		Content:  []byte{0x89, 'P', 'N', 'G'},
	}, constants.IMAGE)

	assert.Equal(t, 1, engine.calls)
	assert.Contains(t, doc.Text, "200 chairs")
	assert.Equal(t, "image-ocr", doc.Meta.Method)
}

func TestDeserializeImageOCRDisabled(t *testing.T) {
	engine := &stubEngine{text: "should not be used"}
	d := New(Config{OCREnabled: false, ArchiveEnabled: true}, sniff.New(), engine, nil)

	doc := d.Deserialize(context.Background(), SourceFile{Filename: "scan.png", Content: []byte{1}}, constants.IMAGE)

	assert.Zero(t, engine.calls)
	assert.Empty(t, doc.Text)
	assert.Contains(t, doc.Meta.Warnings, "ocr disabled")
}

func TestDeserializeImageOCRError(t *testing.T) {
	engine := &stubEngine{err: errors.New("engine broken")}
	d := newTestDeserializer(engine)

	doc := d.Deserialize(context.Background(), SourceFile{Filename: "scan.jpg", Content: []byte{1}}, constants.IMAGE)

	assert.Empty(t, doc.Text)
	assert.Contains(t, doc.Meta.Error, "engine broken")
}

func TestOCRFallbackPrefersLongerText(t *testing.T) {
	engine := &stubEngine{text: "A much longer recognized text with plenty of content in it."}
	d := newTestDeserializer(engine)

	text, meta := d.ocrFallback(context.Background(), SourceFile{Filename: "scan.pdf"}, "pdf-ocr", "tiny", Meta{Method: "pdf-text"})

	assert.Equal(t, engine.text, text)
	assert.Equal(t, "pdf-ocr", meta.Method)
}

func TestOCRFallbackKeepsPrimaryWhenOCRShorter(t *testing.T) {
	engine := &stubEngine{text: "x"}
	d := newTestDeserializer(engine)

	text, meta := d.ocrFallback(context.Background(), SourceFile{Filename: "scan.pdf"}, "pdf-ocr", "primary text", Meta{Method: "pdf-text"})

	assert.Equal(t, "primary text", text)
	assert.Equal(t, "pdf-text", meta.Method)
}

func TestDeserializeAllExpandsArchive(t *testing.T) {
	d := newTestDeserializer(nil)

	inner := buildZip(t, map[string][]byte{
		"docs/readme.txt": []byte("We need 200 chairs for the gala."),
	})
	files := []SourceFile{
		{Filename: "bundle.zip", Content: inner},
		{Filename: "after.txt", Content: []byte("Budget is 5000 EUR.")},
	}

	docs := d.DeserializeAll(context.Background(), files)

	require.Len(t, docs, 2)
	assert.Equal(t, "bundle.zip/docs/readme.txt", docs[0].SourceName)
	assert.Contains(t, docs[0].Text, "200 chairs")
	assert.Equal(t, "after.txt", docs[1].SourceName)
	assert.Contains(t, docs[1].Text, "5000 EUR")
}

func TestDeserializeAllNestedArchiveDepthCap(t *testing.T) {
	d := newTestDeserializer(nil)

	// nest beyond the depth cap
	payload := []byte("deep text")
	current := buildZip(t, map[string][]byte{"leaf.txt": payload})
	for i := 0; i < constants.MaxArchiveDepth+1; i++ {
		current = buildZip(t, map[string][]byte{"nested.zip": current})
	}

	docs := d.DeserializeAll(context.Background(), []SourceFile{{Filename: "bomb.zip", Content: current}})

	require.NotEmpty(t, docs)
	for _, doc := range docs {
		if doc.Meta.Error != "" {
			assert.Contains(t, doc.Meta.Error, "depth")
			return
		}
	}
	t.Fatal("expected a depth-capped document")
}

func TestDeserializeAllCorruptArchive(t *testing.T) {
	d := newTestDeserializer(nil)

	docs := d.DeserializeAll(context.Background(), []SourceFile{
		{Filename: "corrupt.zip", Content: []byte("PK\x03\x04 not a real zip")},
		{Filename: "ok.txt", Content: []byte("still processed")},
	})

	require.Len(t, docs, 2)
	assert.Contains(t, docs[0].Meta.Error, "corrupt archive")
	assert.Equal(t, "still processed", docs[1].Text)
}

func TestDeserializeAllSkipsUnreadableArchiveMember(t *testing.T) {
	d := newTestDeserializer(nil)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "bad.txt", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("UNREADABLE-MEMBER-PAYLOAD"))
	require.NoError(t, err)
	w, err = zw.CreateHeader(&zip.FileHeader{Name: "good.txt", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("Need 40 projectors."))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	// flip the first member's stored bytes so its checksum no longer matches
	raw := bytes.Replace(buf.Bytes(),
		[]byte("UNREADABLE-MEMBER-PAYLOAD"), []byte("unreadable-member-payload"), 1)

	docs := d.DeserializeAll(context.Background(), []SourceFile{{Filename: "bundle.zip", Content: raw}})

	require.Len(t, docs, 1)
	assert.Equal(t, "bundle.zip/good.txt", docs[0].SourceName)
	assert.Contains(t, docs[0].Text, "40 projectors")
}

func TestDeserializeAllArchiveDisabled(t *testing.T) {
	d := New(Config{OCREnabled: false, ArchiveEnabled: false}, sniff.New(), nil, nil)

	inner := buildZip(t, map[string][]byte{"a.txt": []byte("inside")})
	docs := d.DeserializeAll(context.Background(), []SourceFile{{Filename: "bundle.zip", Content: inner}})

	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].Text)
	assert.Contains(t, docs[0].Meta.Warnings, "archive expansion disabled")
}

func TestCleanStripsControlCharacters(t *testing.T) {
	in := "a\x00b\x07c\td\x1Fe"
	assert.Equal(t, "abc\tde", Clean(in))
}

func TestCleanCapsBlankLines(t *testing.T) {
	in := "one\n\n\n\n\ntwo"
	assert.Equal(t, "one\n\ntwo", Clean(in))
}

func TestCleanPreservesContent(t *testing.T) {
	in := "Quantity: 200 chairs @ $10.00 each — total $2,000.00"
	assert.Equal(t, in, Clean(in))
}

func TestDecodeTextUTF16(t *testing.T) {
	// "hi" in UTF-16LE with BOM
	raw := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	s, enc := decodeText(raw)
	assert.Equal(t, "hi", s)
	assert.Equal(t, "utf-16le", enc)
}

func TestDeserializePDFGarbage(t *testing.T) {
	d := newTestDeserializer(nil)

	doc := d.Deserialize(context.Background(), SourceFile{
		Filename: "broken.pdf",
		Content:  []byte("%PDF-1.4 this is not a valid pdf body"),
	}, constants.PDF)

	// absorbed, never fatal
	assert.NotNil(t, doc)
	assert.True(t, doc.Meta.Error != "" || strings.TrimSpace(doc.Text) == "")
}
