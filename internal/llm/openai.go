package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ppiankov/deepresearch/internal/util"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
	logger *zap.Logger
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Transport: util.NewTransport(config.proxy(), false)}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: config.logger(),
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.ListModels(ctx); err != nil {
		p.logger.Warn("OpenAI API check failed", zap.Error(err))
		return false
	}
	return true
}

// Generate requests a JSON-schema constrained completion and decodes it into out
func (p *OpenAIProvider) Generate(ctx context.Context, req Request, out any) error {
	schema, err := SchemaFor(out)
	if err != nil {
		return generationError(req, err)
	}

	modelName := pick(req.Model, p.config.Model, openai.GPT4oMini)
	maxTokens := pick(req.MaxTokens, p.config.MaxTokens, 4096)

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	name := req.Step
	if name == "" {
		name = "result"
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               modelName,
		Messages:            messages,
		MaxCompletionTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: schema,
				Strict: false,
			},
		},
	})
	if err != nil {
		return generationError(req, fmt.Errorf("OpenAI API error: %w", err))
	}
	if len(resp.Choices) == 0 {
		return generationError(req, errors.New("no response from OpenAI"))
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return generationError(req, fmt.Errorf("model refused: %s", msg.Refusal))
	}

	p.logger.Debug("completion",
		zap.String("step", req.Step),
		zap.String("model", modelName),
		zap.Int("tokens", resp.Usage.TotalTokens))

	if err := DecodeJSON(strings.TrimSpace(msg.Content), out); err != nil {
		return generationError(req, err)
	}
	return nil
}
