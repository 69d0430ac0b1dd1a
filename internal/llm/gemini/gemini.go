// Package gemini implements llm.Client on the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/pageza/pantry-chef/backend/internal/llm"
)

const (
	ProviderName = "gemini"
	DefaultModel = "gemini-2.0-flash"
)

// Config configures the Gemini client.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint; empty uses the public Gemini API.
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls Models.GenerateContent. The underlying genai client is safe
// for concurrent use.
type Client struct {
	client *genai.Client
	model  string
}

var _ llm.Client = (*Client)(nil)

// New creates a Gemini client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: client, model: cfg.Model}, nil
}

// Generate sends one prompt. In strict mode the schema is passed as the
// response schema so decoding is constrained to it.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(req.Temperature),
		ResponseMIMEType: "application/json",
	}
	if req.Mode == llm.SchemaStrict && req.Schema != nil {
		genCfg.ResponseSchema = toGenAISchema(req.Schema)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &llm.StatusError{Provider: ProviderName, StatusCode: apiErr.Code, Err: err}
		}
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func toGenAISchema(s *llm.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:             toGenAIType(s.Type),
		Description:      s.Description,
		Items:            toGenAISchema(s.Items),
		Required:         s.Required,
		PropertyOrdering: s.Order,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenAISchema(prop)
		}
	}
	return out
}

func toGenAIType(t llm.Type) genai.Type {
	switch t {
	case llm.TypeObject:
		return genai.TypeObject
	case llm.TypeArray:
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}
