package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vbonduro/animalexplorer/internal/gateway"
)

// Client talks to a local Ollama server. Ollama needs no credential, so a
// configured host is all that makes the gateway usable.
type Client struct {
	host   string
	client *http.Client
}

func New(host string) *Client {
	return &Client{
		host:   host,
		client: &http.Client{},
	}
}

func (c *Client) Generate(ctx context.Context, model string, req gateway.Request) (string, error) {
	reqBody := map[string]interface{}{
		"model":  model,
		"prompt": req.Prompt,
		"stream": false,
	}
	if len(req.Image) > 0 {
		reqBody["images"] = []string{base64.StdEncoding.EncodeToString(req.Image)}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var respBody struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return respBody.Response, nil
}
