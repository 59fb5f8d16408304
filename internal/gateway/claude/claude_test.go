package claude

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

func messagesServer(t *testing.T, text string, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}

		resp := map[string]interface{}{
			"id":          "msg_01",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-3-5-haiku-latest",
			"stop_reason": "end_turn",
			"content": []map[string]interface{}{
				{"type": "text", "text": text},
			},
			"usage": map[string]int{"input_tokens": 10, "output_tokens": 5},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
}

func TestClaudeGenerateWithImage(t *testing.T) {
	var seen map[string]interface{}
	server := messagesServer(t, "Animal Name: Koala", &seen)
	defer server.Close()

	c := New("sk-test", WithBaseURL(server.URL))
	text, err := c.Generate(context.Background(), "claude-3-5-haiku-latest", gateway.Request{
		Prompt:   "identify",
		Image:    []byte{0x89, 0x50},
		MIMEType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Animal Name: Koala", text)

	assert.Equal(t, "claude-3-5-haiku-latest", seen["model"])
	messages, ok := seen["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	content := messages[0].(map[string]interface{})["content"].([]interface{})
	require.Len(t, content, 2)
	assert.Equal(t, "image", content[0].(map[string]interface{})["type"])
	source := content[0].(map[string]interface{})["source"].(map[string]interface{})
	assert.Equal(t, "image/png", source["media_type"])
	assert.Equal(t, "iVA=", source["data"])
}

func TestClaudeGenerateTextOnly(t *testing.T) {
	server := messagesServer(t, "Yes, they swim instead.", nil)
	defer server.Close()

	c := New("sk-test", WithBaseURL(server.URL))
	text, err := c.Generate(context.Background(), "claude-3-5-haiku-latest", gateway.Request{Prompt: "Can penguins fly?"})
	require.NoError(t, err)
	assert.Equal(t, "Yes, they swim instead.", text)
}

func TestClaudeGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"rate limited"}}`))
	}))
	defer server.Close()

	c := New("sk-test", WithBaseURL(server.URL))
	_, err := c.Generate(context.Background(), "claude-3-5-haiku-latest", gateway.Request{Prompt: "x"})
	assert.Error(t, err)
}

func TestNormaliseMIME(t *testing.T) {
	assert.Equal(t, "image/png", normaliseMIME("image/png"))
	assert.Equal(t, "image/webp", normaliseMIME("image/webp"))
	assert.Equal(t, "image/jpeg", normaliseMIME("image/heic"))
	assert.Equal(t, "image/jpeg", normaliseMIME(""))
}
