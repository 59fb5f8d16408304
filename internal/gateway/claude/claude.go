package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/animalexplorer/internal/gateway"
)

// maxTokens bounds a reply; the labelled analysis layout is well under it.
const maxTokens = 1024

type Client struct {
	client *anthropic.Client
}

type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
}

func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func New(apiKey string, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := make([]anthropic.ClientOption, 0, 2)
	if o.baseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, anthropic.WithHTTPClient(o.httpClient))
	}
	return &Client{client: anthropic.NewClient(apiKey, clientOpts...)}
}

func (c *Client) Generate(ctx context.Context, model string, req gateway.Request) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  []anthropic.Message{buildMessage(req)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}
	return resp.GetFirstContentText(), nil
}

func buildMessage(req gateway.Request) anthropic.Message {
	if len(req.Image) == 0 {
		return anthropic.NewUserTextMessage(req.Prompt)
	}
	return anthropic.Message{
		Role: anthropic.RoleUser,
		Content: []anthropic.MessageContent{
			anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				normaliseMIME(req.MIMEType),
				base64.StdEncoding.EncodeToString(req.Image),
			)),
			anthropic.NewTextMessageContent(req.Prompt),
		},
	}
}

// normaliseMIME maps upload MIME types onto the ones the Messages API accepts.
// Anything unexpected is sent as jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
