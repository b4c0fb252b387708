package deserialize

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText decodes bytes as text, trying encodings in a fixed order:
// BOM-indicated UTF variants, plain UTF-8, windows-1252, then a lossy
// latin-1 pass. It never fails; the second return names the chosen
// encoding for metadata.
func decodeText(data []byte) (string, string) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), "utf-8"
	case bytes.HasPrefix(data, bomUTF16LE):
		if s, err := decodeWith(data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)); err == nil {
			return s, "utf-16le"
		}
	case bytes.HasPrefix(data, bomUTF16BE):
		if s, err := decodeWith(data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)); err == nil {
			return s, "utf-16be"
		}
	}

	if utf8.Valid(data) {
		return string(data), "utf-8"
	}

	if s, err := decodeWith(data, charmap.Windows1252); err == nil {
		return s, "windows-1252"
	}

	// latin-1 maps every byte, so this cannot fail
	s, _ := decodeWith(data, charmap.ISO8859_1)
	return s, "latin-1"
}

func decodeWith(data []byte, enc encoding.Encoding) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
