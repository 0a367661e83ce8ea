package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}

func TestTrimPrompt_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "hello world", TrimPrompt("hello world", 100))
	assert.Equal(t, "", TrimPrompt("", 100))
}

func TestTrimPrompt_FitsBudget(t *testing.T) {
	text := strings.Repeat("Revenue grew strongly in the third quarter. ", 400)

	trimmed := TrimPrompt(text, 1000)

	assert.LessOrEqual(t, EstimateTokens(trimmed), 1000)
	assert.True(t, strings.HasPrefix(text, trimmed[:100]), "trimming keeps the beginning")
	assert.Less(t, len(trimmed), len(text))
}

func TestTrimPrompt_MinimumChunk(t *testing.T) {
	text := strings.Repeat("x", 2000)
	trimmed := TrimPrompt(text, 10)
	assert.Equal(t, 140, utf8.RuneCountInString(trimmed))
}

func TestTrimPrompt_DefaultContextSize(t *testing.T) {
	text := strings.Repeat("a ", 10)
	assert.Equal(t, text, TrimPrompt(text, 0))
}
