// Package ollama implements llm.Client on a local Ollama server.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/pageza/pantry-chef/backend/internal/llm"
)

const (
	ProviderName = "ollama"
	DefaultHost  = "http://localhost:11434"
	DefaultModel = "llama3.2"
)

// Config holds Ollama-specific configuration.
type Config struct {
	// Host is the Ollama API endpoint (e.g., "http://localhost:11434")
	Host       string
	Model      string
	HTTPClient *http.Client
}

// Client calls /api/chat without streaming.
type Client struct {
	client *api.Client
	model  string
}

var _ llm.Client = (*Client)(nil)

// New creates an Ollama client.
func New(cfg Config) (*Client, error) {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	base, err := url.Parse(host)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ollama host %q", host)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: api.NewClient(base, httpClient), model: model}, nil
}

// Generate sends the prompt as a user message. In strict mode the JSON schema
// is passed as the format; otherwise the format is plain "json".
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	format := json.RawMessage(`"json"`)
	if req.Mode == llm.SchemaStrict && req.Schema != nil {
		raw, err := json.Marshal(req.Schema.JSONSchema())
		if err != nil {
			return "", fmt.Errorf("ollama: encode schema: %w", err)
		}
		format = raw
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "user", Content: req.Prompt}},
		Stream:   &stream,
		Format:   format,
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}

	var content strings.Builder
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", &llm.StatusError{Provider: ProviderName, StatusCode: statusErr.StatusCode, Err: err}
		}
		return "", fmt.Errorf("ollama: chat: %w", err)
	}

	text := content.String()
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}
