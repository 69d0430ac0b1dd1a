package types

// IngredientSpec is one caller-supplied ingredient.
type IngredientSpec struct {
	Name     string `json:"name" binding:"required"`
	Quantity string `json:"quantity"`
}

// GenerateRecipeRequest is the body of POST /gen_recipe.
type GenerateRecipeRequest struct {
	Ingredients []IngredientSpec `json:"ingredients" binding:"required,min=1,dive"`
}

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
