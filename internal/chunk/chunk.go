// Package chunk splits normalized text into token-budget-respecting
// segments along sentence boundaries, for size-limited downstream
// extraction calls.
package chunk

import (
	"regexp"
	"strings"
)

// WordsToTokensRatio is the empirical words→tokens estimate used to size
// chunks against a model's token budget.
const WordsToTokensRatio = 1.3

// TextChunk is one ordered segment of the input text.
type TextChunk struct {
	Index     int
	Text      string
	EstTokens int
}

var reSentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) * WordsToTokensRatio)
}

// Chunk splits text into segments whose estimated token count stays under
// maxTokens. The whole text is returned as a single chunk when it fits.
// Splitting happens on sentence boundaries, greedily packed; texts without
// sentence boundaries fall back to fixed-size word windows. Concatenating
// the chunk texts reproduces the input modulo whitespace normalization.
func Chunk(text string, maxTokens int) []TextChunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if EstimateTokens(text) <= maxTokens {
		return []TextChunk{{Index: 0, Text: text, EstTokens: EstimateTokens(text)}}
	}

	wordBudget := int(float64(maxTokens) / WordsToTokensRatio)
	if wordBudget < 1 {
		wordBudget = 1
	}

	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return chunkByWords(text, wordBudget)
	}

	var chunks []TextChunk
	var current strings.Builder
	currentWords := 0

	flush := func() {
		t := strings.TrimSpace(current.String())
		if t == "" {
			return
		}
		chunks = append(chunks, TextChunk{
			Index:     len(chunks),
			Text:      t,
			EstTokens: EstimateTokens(t),
		})
		current.Reset()
		currentWords = 0
	}

	for _, s := range sentences {
		words := len(strings.Fields(s))
		if currentWords > 0 && currentWords+words > wordBudget {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(s)
		currentWords += words
	}
	flush()

	return chunks
}

// splitSentences cuts text after `.`, `!` or `?` followed by whitespace,
// keeping the terminator with its sentence.
func splitSentences(text string) []string {
	indexes := reSentenceEnd.FindAllStringSubmatchIndex(text, -1)
	if len(indexes) == 0 {
		return []string{text}
	}

	var sentences []string
	start := 0
	for _, m := range indexes {
		// m[3] is the end of the terminator character
		end := m[3]
		s := strings.TrimSpace(text[start:end])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = m[1]
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// chunkByWords is the degenerate-text fallback: fixed-size word windows.
func chunkByWords(text string, wordBudget int) []TextChunk {
	words := strings.Fields(text)
	var chunks []TextChunk
	for start := 0; start < len(words); start += wordBudget {
		end := start + wordBudget
		if end > len(words) {
			end = len(words)
		}
		t := strings.Join(words[start:end], " ")
		chunks = append(chunks, TextChunk{
			Index:     len(chunks),
			Text:      t,
			EstTokens: EstimateTokens(t),
		})
	}
	return chunks
}
