package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/pageza/pantry-chef/backend/internal/llm"
)

var testSchema = &llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]*llm.Schema{
		"recipe_name": {Type: llm.TypeString},
		"ingredients": {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}},
	},
	Required: []string{"recipe_name", "ingredients"},
	Order:    []string{"recipe_name", "ingredients"},
}

func fakeGemini(t *testing.T, reply string, captured *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.0-flash:generateContent") {
			http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if captured != nil {
			_ = json.Unmarshal(body, captured)
		}
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": reply}},
				},
				"finishReason": "STOP",
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestGenerateStrict(t *testing.T) {
	var captured map[string]any
	srv := fakeGemini(t, `{"recipe_name":"Omelette","ingredients":["egg"]}`, &captured)
	defer srv.Close()

	client, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := client.Generate(context.Background(), llm.Request{
		Prompt:      "cook something",
		Temperature: 1,
		Schema:      testSchema,
		Mode:        llm.SchemaStrict,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"recipe_name":"Omelette","ingredients":["egg"]}`, text)

	genCfg, ok := captured["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing from request: %v", captured)
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
	assert.NotNil(t, genCfg["responseSchema"])
	assert.EqualValues(t, 1, genCfg["temperature"])
}

func TestGenerateJSONModeOmitsSchema(t *testing.T) {
	var captured map[string]any
	srv := fakeGemini(t, `{}`, &captured)
	defer srv.Close()

	client, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), llm.Request{Prompt: "p", Schema: testSchema, Mode: llm.SchemaJSON})
	require.NoError(t, err)

	genCfg := captured["generationConfig"].(map[string]any)
	assert.Nil(t, genCfg["responseSchema"])
}

func TestGenerateEmptyText(t *testing.T) {
	srv := fakeGemini(t, "  ", nil)
	defer srv.Close()

	client, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), llm.Request{Prompt: "p"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`))
	}))
	defer srv.Close()

	client, err := New(context.Background(), Config{APIKey: "bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), llm.Request{Prompt: "p"})
	require.Error(t, err)

	var statusErr *llm.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, ProviderName, statusErr.Provider)
	assert.False(t, llm.IsTransient(err))
}

func TestGenerateRetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	ok := fakeGemini(t, `{"recipe_name":"Omelette","ingredients":["egg"]}`, nil)
	defer ok.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
			return
		}
		ok.Config.Handler.ServeHTTP(w, r)
	}))
	defer srv.Close()

	client, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := llm.WithRetry(client, 1, time.Millisecond, nil).Generate(context.Background(), llm.Request{Prompt: "p"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"recipe_name":"Omelette","ingredients":["egg"]}`, text)
	assert.EqualValues(t, 2, calls.Load())
}

func TestToGenAISchema(t *testing.T) {
	out := toGenAISchema(testSchema)
	assert.Equal(t, genai.TypeObject, out.Type)
	assert.Equal(t, []string{"recipe_name", "ingredients"}, out.Required)
	assert.Equal(t, []string{"recipe_name", "ingredients"}, out.PropertyOrdering)
	assert.Equal(t, genai.TypeArray, out.Properties["ingredients"].Type)
	assert.Equal(t, genai.TypeString, out.Properties["ingredients"].Items.Type)
}
