package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/pantry-chef/backend/internal/llm"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

// MockLLMClient is a mock implementation of llm.Client
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockArchive is a mock implementation of the recipe archive
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Save(ctx context.Context, ingredients []types.IngredientSpec, recipe *types.RecipeResult) error {
	args := m.Called(ctx, ingredients, recipe)
	return args.Error(0)
}
