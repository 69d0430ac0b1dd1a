package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/pantry-chef/backend/internal/models"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

// IRecipeService defines the interface for recipe generation
type IRecipeService interface {
	GenerateRecipe(ctx context.Context, ingredients []types.IngredientSpec) (*types.RecipeResult, error)
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

var (
	_ IRecipeService = (*RecipeService)(nil)
	_ IAuthService   = (*AuthService)(nil)
)
