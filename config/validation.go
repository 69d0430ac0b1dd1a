package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return "configuration validation failed:\n" + strings.Join(msgs, "\n")
}

// ValidateConfig checks the configuration and reports all problems at once.
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if cfg.Server.Port == "" {
		add("server.port", "is required")
	}
	for _, origin := range cfg.Server.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			add("server.allowed_origins", fmt.Sprintf("%q must start with http:// or https://", origin))
		}
	}

	switch cfg.DB.Driver {
	case "postgres":
		if cfg.DB.Host == "" || cfg.DB.Name == "" {
			add("db", "host and name are required for postgres")
		}
		if cfg.Env == Production && cfg.DB.Password == "" {
			add("db.password", "is required in production")
		}
	case "sqlite":
		if cfg.DB.Path == "" {
			add("db.path", "is required for sqlite")
		}
	default:
		add("db.driver", fmt.Sprintf("unknown driver %q", cfg.DB.Driver))
	}

	if cfg.JWT.Secret == "" {
		add("jwt.secret", "is required")
	}
	if cfg.JWT.TTL <= 0 {
		add("jwt.ttl", "must be positive")
	}

	switch cfg.LLM.Provider {
	case "gemini", "openai":
		if cfg.LLM.APIKey == "" {
			add("llm.api_key", fmt.Sprintf("is required for provider %s", cfg.LLM.Provider))
		}
	case "ollama":
	default:
		add("llm.provider", fmt.Sprintf("unknown provider %q", cfg.LLM.Provider))
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		add("llm.temperature", "must be between 0 and 2")
	}
	if cfg.LLM.Timeout <= 0 {
		add("llm.timeout", "must be positive")
	}
	if cfg.LLM.MaxRetries < 0 {
		add("llm.max_retries", "must not be negative")
	}
	if cfg.LLM.SchemaMode != "strict" && cfg.LLM.SchemaMode != "json" {
		add("llm.schema_mode", `must be "strict" or "json"`)
	}

	if cfg.RateLimit.Requests < 0 {
		add("rate_limit.requests", "must not be negative")
	}
	if cfg.RateLimit.Requests > 0 && cfg.RateLimit.Window <= 0 {
		add("rate_limit.window", "must be positive when requests is set")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
