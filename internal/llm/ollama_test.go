package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Contains(t, string(req.Format), `"queries"`)

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:    "llama3.1",
			Response: `{"queries":["one"]}`,
			Done:     true,
		})
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})
	require.NoError(t, err)

	var out queriesAnswer
	require.NoError(t, p.Generate(context.Background(), Request{Prompt: "p"}, &out))
	assert.Equal(t, []string{"one"}, out.Queries)
}

func TestOllamaProvider_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "missing"})
	require.NoError(t, err)

	var out queriesAnswer
	err = p.Generate(context.Background(), Request{}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaProvider_Generate_NoModel(t *testing.T) {
	p, err := NewOllamaProvider(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	var out queriesAnswer
	assert.Error(t, p.Generate(context.Background(), Request{}, &out))
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{BaseURL: server.URL})
	require.NoError(t, err)
	assert.True(t, p.IsAvailable(context.Background()))
}
