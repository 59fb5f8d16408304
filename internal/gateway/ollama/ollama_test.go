package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/animalexplorer/internal/gateway"
)

func TestOllamaGenerate(t *testing.T) {
	var got struct {
		Model  string   `json:"model"`
		Prompt string   `json:"prompt"`
		Images []string `json:"images"`
		Stream bool     `json:"stream"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"model":    got.Model,
			"response": "Animal Name: Hedgehog",
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	c := New(server.URL)
	text, err := c.Generate(context.Background(), "llava", gateway.Request{
		Prompt:   "identify",
		Image:    []byte{0xFF, 0xD8, 0xFF, 0xE0},
		MIMEType: "image/jpeg",
	})

	require.NoError(t, err)
	assert.Equal(t, "Animal Name: Hedgehog", text)
	assert.Equal(t, "llava", got.Model)
	assert.Equal(t, "identify", got.Prompt)
	assert.Equal(t, []string{"/9j/4A=="}, got.Images)
	assert.False(t, got.Stream)
}

func TestOllamaGenerateTextOnlyOmitsImages(t *testing.T) {
	var raw map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "Hello!"})
	}))
	defer server.Close()

	text, err := New(server.URL).Generate(context.Background(), "llama3", gateway.Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", text)
	assert.NotContains(t, raw, "images")
}

func TestOllamaGenerateNetworkError(t *testing.T) {
	_, err := New("http://localhost:99999").Generate(context.Background(), "llava", gateway.Request{Prompt: "x"})
	assert.Error(t, err)
}

func TestOllamaGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(server.URL).Generate(context.Background(), "llava", gateway.Request{Prompt: "x"})
	assert.Error(t, err)
}
