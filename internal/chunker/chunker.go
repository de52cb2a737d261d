package chunker

import (
	"strings"
	"unicode"
)

// DefaultWindow is the classifier's maximum input length in characters.
const DefaultWindow = 512

// Windows splits text into consecutive windows of size runes. Windows do not
// overlap and ignore word boundaries, so a word may straddle two windows.
// Empty text yields no windows.
func Windows(text string, size int) []string {
	if size <= 0 {
		size = DefaultWindow
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Sentences splits text on the literal '.' character. Pieces are returned
// as-is, including empty and whitespace-only ones.
func Sentences(text string) []string {
	return strings.Split(text, ".")
}

// Words splits text into word tokens in order. Punctuation separates words;
// apostrophes and hyphens inside a word are kept ("isn't", "long-term").
func Words(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
	})
	words := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "'-"); f != "" {
			words = append(words, f)
		}
	}
	return words
}
