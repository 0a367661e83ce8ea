package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/model"
	"github.com/ppiankov/deepresearch/internal/util"
)

// Provider produces structured output from a language model
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate fills out, a pointer to a struct, with a JSON object produced by the model.
	// Any transport, refusal or decoding failure is returned as *model.GenerationError.
	Generate(ctx context.Context, req Request, out any) error

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request is a single structured generation call
type Request struct {
	// Step names the research step for errors and logs (e.g. "serp_queries")
	Step string

	// Model is the provider-specific model name; empty uses the provider default
	Model string

	System string
	Prompt string

	// MaxTokens limits the response length; zero uses the provider default
	MaxTokens int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   60,
		MaxTokens: 4096,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig, logger *zap.Logger) Config {
	return Config{
		Provider:   c.Provider,
		Model:      c.Model,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxTokens:  c.MaxTokens,
		HTTPProxy:  c.HTTPProxy,
		HTTPSProxy: c.HTTPSProxy,
		NoProxy:    c.NoProxy,
		Logger:     logger,
	}
}

func (c Config) proxy() util.ProxySettings {
	return util.ProxySettings{HTTPProxy: c.HTTPProxy, HTTPSProxy: c.HTTPSProxy, NoProxy: c.NoProxy}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// SchemaFor builds the JSON schema of the struct out points to
func SchemaFor(out any) (*jsonschema.Definition, error) {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, fmt.Errorf("output must be a non-nil pointer, got %T", out)
	}
	return jsonschema.GenerateSchemaForType(v.Elem().Interface())
}

// schemaJSON renders the schema of out for embedding in prompts
func schemaJSON(out any) ([]byte, error) {
	def, err := SchemaFor(out)
	if err != nil {
		return nil, err
	}
	return json.Marshal(def)
}

func generationError(req Request, err error) error {
	step := req.Step
	if step == "" {
		step = "object"
	}
	return &model.GenerationError{Step: step, Err: err}
}

func pick[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
