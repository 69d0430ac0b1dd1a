package types

// RecipeResult is a validated recipe, serialised with the external field names.
type RecipeResult struct {
	RecipeName      string   `json:"recipeName"`
	Ingredients     []string `json:"ingredients"`
	Instructions    []string `json:"instructions"`
	Recommendations []string `json:"recommendations"`
}
