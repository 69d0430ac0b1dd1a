package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	results []error
	calls   int
}

func (c *scriptedClient) Generate(ctx context.Context, req Request) (string, error) {
	i := c.calls
	c.calls++
	if i < len(c.results) && c.results[i] != nil {
		return "", c.results[i]
	}
	return `{"ok":true}`, nil
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &StatusError{Provider: "openai", StatusCode: 429, Err: errors.New("slow down")}, true},
		{"unavailable", fmt.Errorf("wrapped: %w", &StatusError{StatusCode: 503, Err: errors.New("x")}), true},
		{"unauthorized", &StatusError{StatusCode: 401, Err: errors.New("bad key")}, false},
		{"network", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"deadline", context.DeadlineExceeded, false},
		{"canceled", fmt.Errorf("call: %w", context.Canceled), false},
		{"empty response", ErrEmptyResponse, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestWithRetryRetriesTransientOnce(t *testing.T) {
	inner := &scriptedClient{results: []error{&StatusError{StatusCode: 503, Err: errors.New("busy")}}}
	client := WithRetry(inner, 1, time.Millisecond, nil)

	text, err := client.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
	assert.Equal(t, 2, inner.calls)
}

func TestWithRetryGivesUpAfterBudget(t *testing.T) {
	busy := &StatusError{StatusCode: 503, Err: errors.New("busy")}
	inner := &scriptedClient{results: []error{busy, busy, busy}}
	client := WithRetry(inner, 1, time.Millisecond, nil)

	_, err := client.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, busy)
	assert.Equal(t, 2, inner.calls)
}

func TestWithRetrySkipsPermanentErrors(t *testing.T) {
	inner := &scriptedClient{results: []error{&StatusError{StatusCode: 401, Err: errors.New("bad key")}}}
	client := WithRetry(inner, 3, time.Millisecond, nil)

	_, err := client.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestWithRetryZeroIsPassthrough(t *testing.T) {
	inner := &scriptedClient{}
	assert.Same(t, Client(inner), WithRetry(inner, 0, 0, nil))
}

func TestSchemaJSONSchema(t *testing.T) {
	s := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"name":  {Type: TypeString},
			"steps": {Type: TypeArray, Items: &Schema{Type: TypeString}},
		},
		Required: []string{"name", "steps"},
	}

	out := s.JSONSchema()
	assert.Equal(t, "object", out["type"])
	assert.Equal(t, false, out["additionalProperties"])
	assert.Equal(t, []string{"name", "steps"}, out["required"])

	props := out["properties"].(map[string]any)
	steps := props["steps"].(map[string]any)
	assert.Equal(t, "array", steps["type"])
	assert.Equal(t, map[string]any{"type": "string"}, steps["items"])
}
