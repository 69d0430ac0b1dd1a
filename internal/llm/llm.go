// Package llm defines the outbound text-generation client used by the recipe
// service and the schema descriptor passed to it. Provider implementations
// live in the gemini, openai and ollama subpackages.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Client generates text for a prompt. Implementations must be safe for
// concurrent use.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// SchemaMode selects how strongly the provider is constrained.
type SchemaMode string

const (
	// SchemaStrict asks the provider for schema-constrained decoding.
	SchemaStrict SchemaMode = "strict"
	// SchemaJSON only asks for a JSON response; the caller validates the shape.
	SchemaJSON SchemaMode = "json"
)

// Request is a single generation call.
type Request struct {
	Prompt      string
	Temperature float32
	Schema      *Schema
	Mode        SchemaMode
}

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// StatusError carries the HTTP status reported by a provider API.
type StatusError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth one more attempt: network
// failures and 429/502/503/504 responses.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
