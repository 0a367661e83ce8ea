// Package textsplit breaks long text into bounded chunks along the most natural
// separator available.
package textsplit

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order, from paragraph breaks down to single characters
var DefaultSeparators = []string{"\n\n", "\n", ".", ",", ">", "<", " ", ""}

// RecursiveSplitter splits text on the first separator present, recursing into
// pieces that are still too large. Sizes are measured in characters.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// New creates a splitter. With no separators DefaultSeparators are used.
func New(chunkSize, chunkOverlap int, separators ...string) (*RecursiveSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", chunkOverlap, chunkSize)
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &RecursiveSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   separators,
	}, nil
}

// Split returns the chunks of text in order
func (s *RecursiveSplitter) Split(text string) []string {
	separator := s.separators[len(s.separators)-1]
	for _, sep := range s.separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			break
		}
	}

	var pieces []string
	if separator == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, separator)
	}

	var chunks, good []string
	for _, p := range pieces {
		if length(p) < s.chunkSize {
			good = append(good, p)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, s.merge(good, separator)...)
			good = nil
		}
		chunks = append(chunks, s.Split(p)...)
	}
	if len(good) > 0 {
		chunks = append(chunks, s.merge(good, separator)...)
	}
	return chunks
}

// merge packs small pieces into chunks no longer than chunkSize where possible,
// carrying up to chunkOverlap characters into the next chunk
func (s *RecursiveSplitter) merge(pieces []string, separator string) []string {
	var docs, current []string
	total := 0

	for _, p := range pieces {
		n := length(p)
		if total+n >= s.chunkSize && len(current) > 0 {
			if doc, ok := join(current, separator); ok {
				docs = append(docs, doc)
			}
			for len(current) > 0 && (total > s.chunkOverlap || (total+n > s.chunkSize && total > 0)) {
				total -= length(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if doc, ok := join(current, separator); ok {
		docs = append(docs, doc)
	}
	return docs
}

func join(pieces []string, separator string) (string, bool) {
	text := strings.TrimSpace(strings.Join(pieces, separator))
	return text, text != ""
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
