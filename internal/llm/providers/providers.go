// Package providers builds the configured llm.Client.
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/llm"
	"github.com/pageza/pantry-chef/backend/internal/llm/gemini"
	"github.com/pageza/pantry-chef/backend/internal/llm/ollama"
	"github.com/pageza/pantry-chef/backend/internal/llm/openai"
)

// New returns the client for cfg.Provider, wrapped with the retry policy.
func New(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (llm.Client, error) {
	httpClient := &http.Client{}

	var (
		client llm.Client
		err    error
	)
	switch cfg.Provider {
	case "gemini":
		client, err = gemini.New(ctx, gemini.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
		})
	case "openai":
		client, err = openai.New(openai.Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient,
		})
	case "ollama":
		client, err = ollama.New(ollama.Config{
			Host:       cfg.BaseURL,
			Model:      cfg.Model,
			HTTPClient: httpClient,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("initialized llm provider",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"schema_mode", cfg.SchemaMode,
		"max_retries", cfg.MaxRetries)

	return llm.WithRetry(client, cfg.MaxRetries, llm.DefaultRetryWait, logger), nil
}
