package deserialize

import (
	"regexp"
	"strings"
)

var (
	reHorizWS    = regexp.MustCompile(`[ \t]{2,}`)
	reBlankLines = regexp.MustCompile(`\n{3,}`)
)

// Clean applies the minimal normalization pass shared by all strategies:
// control characters other than tab and newline are stripped, runs of
// horizontal whitespace are collapsed, and consecutive blank lines are
// capped at two. Content is never semantically trimmed or truncated.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\r':
			// dropped; \r\n collapses to \n
		case r == '\f':
			b.WriteByte('\n')
		case r == '\t' || r == '\n':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7F:
			// other control characters
		default:
			b.WriteRune(r)
		}
	}

	s := reHorizWS.ReplaceAllString(b.String(), " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	s = reBlankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}
