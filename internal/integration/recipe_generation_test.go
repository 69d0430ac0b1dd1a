package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/api"
	"github.com/pageza/pantry-chef/backend/internal/llm/providers"
	"github.com/pageza/pantry-chef/backend/internal/logging"
	"github.com/pageza/pantry-chef/backend/internal/middleware"
	"github.com/pageza/pantry-chef/backend/internal/router"
	"github.com/pageza/pantry-chef/backend/internal/service"
	"github.com/pageza/pantry-chef/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeModel answers OpenAI-compatible chat completions with a fixed reply
// and records the prompts it was sent.
type fakeModel struct {
	mu      sync.Mutex
	reply   string
	prompts []string
}

func (m *fakeModel) setReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
}

func (m *fakeModel) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *fakeModel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	m.mu.Lock()
	if len(body.Messages) > 0 {
		m.prompts = append(m.prompts, body.Messages[0].Content)
	}
	reply := m.reply
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "deepseek-chat",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": reply},
		}},
	})
}

type testApp struct {
	router *gin.Engine
	model  *fakeModel
}

func setupApp(t *testing.T, limit int) *testApp {
	t.Helper()

	model := &fakeModel{}
	upstream := httptest.NewServer(model)
	t.Cleanup(upstream.Close)

	logger := logging.Discard()
	llmCfg := config.LLMConfig{
		Provider:    "openai",
		Model:       "deepseek-chat",
		APIKey:      "test-key",
		BaseURL:     upstream.URL,
		Temperature: 1,
		Timeout:     5 * time.Second,
		SchemaMode:  "strict",
	}
	client, err := providers.New(context.Background(), llmCfg, logger)
	require.NoError(t, err)

	db := testhelpers.SetupTestDatabase(t)
	auth := service.NewAuthService(db, service.NewMemorySessionStore(), config.JWTConfig{Secret: "integration-secret", TTL: time.Hour})

	var limiter middleware.Limiter
	if limit > 0 {
		limiter = middleware.NewLocalRateLimiter(middleware.RateLimitConfig{Window: time.Hour, Limit: limit})
	}

	r := router.SetupRouter(router.Deps{
		Logger:        logger,
		Auth:          auth,
		RecipeHandler: api.NewRecipeHandler(service.NewRecipeService(client, llmCfg, logger), nil, logger),
		Limiter:       limiter,
	})
	return &testApp{router: r, model: model}
}

func (a *testApp) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/register",
		`{"email":"`+email+`","password":"correct-horse","first_name":"Ana"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"`+email+`","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

const tortilla = `{
	"recipe_name": "Tortilla de patatas",
	"ingredients": ["3 eggs", "2 potatoes"],
	"instructions": ["Fry the potatoes", "Add the beaten eggs", "Flip"],
	"recommendations": ["Serve warm"]
}`

const eggsAndPotatoes = `{"ingredients":[{"name":"eggs","quantity":"3"},{"name":"potatoes","quantity":"2"}]}`

func TestGenerateRecipeEndToEnd(t *testing.T) {
	app := setupApp(t, 0)
	app.model.setReply(tortilla)

	w := app.do(t, http.MethodPost, "/gen_recipe", eggsAndPotatoes, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var recipe map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipe))
	assert.Equal(t, "Tortilla de patatas", recipe["recipeName"])
	assert.Equal(t, []any{"3 eggs", "2 potatoes"}, recipe["ingredients"])
	assert.Len(t, recipe["instructions"], 3)
	assert.Equal(t, []any{"Serve warm"}, recipe["recommendations"])

	prompts := app.model.calls()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "- eggs: 3\n- potatoes: 2\n")
}

func TestGenerateRecipeModelFailuresAreGeneric(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "not json", reply: "Here is a lovely recipe for you"},
		{name: "missing instructions", reply: `{"recipe_name":"Tortilla","ingredients":[],"recommendations":[]}`},
		{name: "wrong type", reply: `{"recipe_name":"Tortilla","ingredients":"eggs","instructions":[],"recommendations":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(t, 0)
			app.model.setReply(tt.reply)

			w := app.do(t, http.MethodPost, "/api/v1/recipes/generate", eggsAndPotatoes, "")
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"Error":"Could not generate recipe"}`, w.Body.String())
		})
	}
}

func TestGenerateRecipeRejectsEmptyListWithoutCallingModel(t *testing.T) {
	app := setupApp(t, 0)
	app.model.setReply(tortilla)

	w := app.do(t, http.MethodPost, "/gen_recipe", `{"ingredients":[]}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, app.model.calls())
}

func TestRateLimitIsPerUser(t *testing.T) {
	app := setupApp(t, 1)
	app.model.setReply(tortilla)

	ana := app.login(t, "ana@example.com")
	ben := app.login(t, "ben@example.com")

	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/gen_recipe", eggsAndPotatoes, ana).Code)
	assert.Equal(t, http.StatusTooManyRequests, app.do(t, http.MethodPost, "/gen_recipe", eggsAndPotatoes, ana).Code)

	// A different user and an anonymous caller have their own budgets.
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/gen_recipe", eggsAndPotatoes, ben).Code)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/gen_recipe", eggsAndPotatoes, "").Code)
}

func TestLoggedOutTokenFallsBackToAnonymous(t *testing.T) {
	app := setupApp(t, 0)
	app.model.setReply(tortilla)

	token := app.login(t, "ana@example.com")
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/api/v1/auth/me", "", token).Code)

	require.Equal(t, http.StatusNoContent, app.do(t, http.MethodPost, "/api/v1/auth/logout", "", token).Code)
	assert.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodGet, "/api/v1/auth/me", "", token).Code)

	// Generation stays open to the stale token's holder.
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/gen_recipe", eggsAndPotatoes, token).Code)
}
