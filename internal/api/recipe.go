package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/pantry-chef/backend/internal/service"
	"github.com/pageza/pantry-chef/backend/internal/storage"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

// GenerationFailedMessage is the only failure text callers ever see.
const GenerationFailedMessage = "Could not generate recipe"

const archiveTimeout = 10 * time.Second

// RecipeHandler serves recipe generation.
type RecipeHandler struct {
	recipes service.IRecipeService
	archive storage.RecipeArchive
	logger  *slog.Logger
	pending sync.WaitGroup
}

// NewRecipeHandler creates a new RecipeHandler instance. A nil archive
// disables archiving.
func NewRecipeHandler(recipes service.IRecipeService, archive storage.RecipeArchive, logger *slog.Logger) *RecipeHandler {
	if archive == nil {
		archive = storage.NopArchive{}
	}
	return &RecipeHandler{
		recipes: recipes,
		archive: archive,
		logger:  logger,
	}
}

// GenerateRecipe handles POST /gen_recipe.
func (h *RecipeHandler) GenerateRecipe(c *gin.Context) {
	var req types.GenerateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"Error": "Invalid request: a non-empty list of ingredients with names is required"})
		return
	}

	recipe, err := h.recipes.GenerateRecipe(c.Request.Context(), req.Ingredients)
	if err != nil {
		// Details were logged by the service.
		if service.IsInputError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"Error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"Error": GenerationFailedMessage})
		return
	}

	h.archiveAsync(req.Ingredients, recipe)
	c.JSON(http.StatusOK, recipe)
}

// archiveAsync stores the recipe without holding up the response. Failures
// are logged only.
func (h *RecipeHandler) archiveAsync(ingredients []types.IngredientSpec, recipe *types.RecipeResult) {
	if _, ok := h.archive.(storage.NopArchive); ok {
		return
	}

	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := h.archive.Save(ctx, ingredients, recipe); err != nil {
			h.logger.Warn("failed to archive recipe", "recipe_name", recipe.RecipeName, "error", err)
		}
	}()
}

// Wait blocks until in-flight archive uploads finish.
func (h *RecipeHandler) Wait() {
	h.pending.Wait()
}
