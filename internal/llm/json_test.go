package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/deepresearch/internal/model"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		want       []string
		wantErr    bool
	}{
		{"plain", `{"queries":["a"]}`, []string{"a"}, false},
		{"fenced", "```json\n{\"queries\":[\"a\",\"b\"]}\n```", []string{"a", "b"}, false},
		{"bare fence", "```\n{\"queries\":[]}\n```", []string{}, false},
		{"surrounding prose", "Here you go: {\"queries\":[\"x\"]} hope it helps", []string{"x"}, false},
		{"no object", "sorry", nil, true},
		{"broken object", `{"queries": [`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out queriesAnswer
			err := DecodeJSON(tt.completion, &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Queries)
		})
	}
}

func TestSchemaFor(t *testing.T) {
	def, err := SchemaFor(&queriesAnswer{})
	require.NoError(t, err)
	assert.Contains(t, def.Properties, "queries")
	assert.Contains(t, def.Required, "queries")

	_, err = SchemaFor(queriesAnswer{})
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = NewProvider(Config{Provider: "claude", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	p, err = NewProvider(Config{Provider: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	_, err = NewProvider(Config{Provider: "bard"})
	var cfgErr *model.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "llm.provider", cfgErr.Field)

	_, err = NewProvider(Config{Provider: "openai"})
	assert.Error(t, err, "missing key")
}
