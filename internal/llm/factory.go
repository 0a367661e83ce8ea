package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/deepresearch/internal/model"
)

// NewProvider creates the structured generation backend named by config.Provider.
// An unknown name is a *model.ConfigurationError.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "openai":
		return NewOpenAIProvider(config)
	case "anthropic", "claude":
		return NewAnthropicProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	}
	return nil, &model.ConfigurationError{
		Field:  "llm.provider",
		Reason: fmt.Sprintf("unknown provider %q (supported: openai, anthropic, ollama)", config.Provider),
	}
}
