package llm

import (
	"unicode/utf8"

	"github.com/ppiankov/deepresearch/internal/textsplit"
)

const (
	// DefaultContextSize is the token budget used when none is given
	DefaultContextSize = 128_000

	minTrimChunk     = 140
	charsPerOverflow = 3
	charsPerToken    = 4
)

// EstimateTokens approximates the token count of text
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}

// TrimPrompt shortens text until it fits within contextSize tokens, cutting along
// natural boundaries where possible. A non-positive contextSize uses DefaultContextSize.
func TrimPrompt(text string, contextSize int) string {
	if contextSize <= 0 {
		contextSize = DefaultContextSize
	}

	for text != "" {
		tokens := EstimateTokens(text)
		if tokens <= contextSize {
			return text
		}

		length := utf8.RuneCountInString(text)
		chunkSize := length - (tokens-contextSize)*charsPerOverflow
		if chunkSize < minTrimChunk {
			return prefix(text, minTrimChunk)
		}

		splitter, err := textsplit.New(chunkSize, 0)
		if err != nil {
			return prefix(text, chunkSize)
		}
		trimmed := ""
		if chunks := splitter.Split(text); len(chunks) > 0 {
			trimmed = chunks[0]
		}
		if utf8.RuneCountInString(trimmed) >= length {
			text = prefix(text, chunkSize)
			continue
		}
		text = trimmed
	}
	return text
}

func prefix(text string, runes int) string {
	i := 0
	for pos := range text {
		if i == runes {
			return text[:pos]
		}
		i++
	}
	return text
}
