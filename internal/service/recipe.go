package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pageza/pantry-chef/backend/config"
	"github.com/pageza/pantry-chef/backend/internal/llm"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

// DefaultGenerationTimeout bounds one model call when none is configured.
const DefaultGenerationTimeout = 30 * time.Second

// RecipeService turns an ingredient list into a validated recipe. It holds no
// per-request state and is safe for concurrent use.
type RecipeService struct {
	client      llm.Client
	temperature float32
	mode        llm.SchemaMode
	timeout     time.Duration
	logger      *slog.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(client llm.Client, cfg config.LLMConfig, logger *slog.Logger) *RecipeService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	mode := llm.SchemaMode(cfg.SchemaMode)
	if mode == "" {
		mode = llm.SchemaStrict
	}

	return &RecipeService{
		client:      client,
		temperature: cfg.Temperature,
		mode:        mode,
		timeout:     timeout,
		logger:      logger,
	}
}

// GenerateRecipe runs one generation: build the prompt, call the model once
// (plus any transient retries the client applies), then parse and validate the
// output. Failures are returned as *GenerationError and logged here with the
// raw model output; callers should not log them again.
func (s *RecipeService) GenerateRecipe(ctx context.Context, ingredients []types.IngredientSpec) (*types.RecipeResult, error) {
	start := time.Now()
	recipe, err := s.generate(ctx, ingredients)
	recipeGenerationDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		recipeGenerationsTotal.WithLabelValues(outcomeSuccess).Inc()
		s.logger.Info("generated recipe",
			"ingredients", len(ingredients),
			"recipe_name", recipe.RecipeName,
			"duration", time.Since(start))
		return recipe, nil
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		genErr = &GenerationError{Kind: KindModelInvocation, Err: err}
		err = genErr
	}
	recipeGenerationsTotal.WithLabelValues(string(genErr.Kind)).Inc()

	level := slog.LevelError
	if genErr.Kind == KindPromptBuild {
		level = slog.LevelWarn
	}
	attrs := []any{
		"kind", genErr.Kind,
		"error", genErr.Err,
		"ingredients", len(ingredients),
		"duration", time.Since(start),
	}
	if genErr.RawOutput != "" {
		attrs = append(attrs, "raw_output", genErr.RawOutput)
	}
	s.logger.Log(ctx, level, "could not generate recipe", attrs...)

	return nil, err
}

func (s *RecipeService) generate(ctx context.Context, ingredients []types.IngredientSpec) (*types.RecipeResult, error) {
	prompt, err := BuildPrompt(ingredients)
	if err != nil {
		return nil, &GenerationError{Kind: KindPromptBuild, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: s.temperature,
		Schema:      RecipeSchema(),
		Mode:        s.mode,
	})
	if err != nil {
		return nil, &GenerationError{Kind: KindModelInvocation, Err: err}
	}

	recipe, err := ParseRecipe(raw)
	if err != nil {
		kind := KindSchemaValidation
		if errors.Is(err, ErrResponseParse) {
			kind = KindResponseParse
		}
		return nil, &GenerationError{Kind: kind, RawOutput: raw, Err: err}
	}
	return recipe, nil
}
