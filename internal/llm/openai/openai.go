// Package openai implements llm.Client on the OpenAI chat completions API.
// Any compatible endpoint (DeepSeek, vLLM, LiteLLM) works through BaseURL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/pageza/pantry-chef/backend/internal/llm"
)

const (
	ProviderName = "openai"
	DefaultModel = "gpt-4o-mini"
	schemaName   = "recipe"
)

// Config configures the OpenAI client.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls Chat.Completions.New.
type Client struct {
	client openai.Client
	model  string
}

var _ llm.Client = (*Client)(nil)

// New creates an OpenAI-compatible client. SDK retries are disabled; retry
// policy belongs to llm.WithRetry.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{client: openai.NewClient(opts...), model: cfg.Model}, nil
}

// Generate sends the prompt as a single user message.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(req.Prompt)},
		Temperature: openai.Float(float64(req.Temperature)),
	}

	if req.Mode == llm.SchemaStrict && req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Schema: req.Schema.JSONSchema(),
					Strict: openai.Bool(true),
				},
			},
		}
	} else {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &llm.StatusError{Provider: ProviderName, StatusCode: apiErr.StatusCode, Err: err}
		}
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}
	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", llm.ErrEmptyResponse
	}
	return content, nil
}
