package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/pantry-chef/backend/internal/llm"
	"github.com/pageza/pantry-chef/backend/internal/types"
)

// Field names the model is asked to produce.
const (
	fieldRecipeName      = "recipe_name"
	fieldIngredients     = "ingredients"
	fieldInstructions    = "instructions"
	fieldRecommendations = "recommendations"
)

var recipeFields = []string{fieldRecipeName, fieldIngredients, fieldInstructions, fieldRecommendations}

// RecipeSchema describes the object the model must return. Every call builds a
// fresh value so providers may not mutate a shared one.
func RecipeSchema() *llm.Schema {
	stringList := func(desc string) *llm.Schema {
		return &llm.Schema{
			Type:        llm.TypeArray,
			Description: desc,
			Items:       &llm.Schema{Type: llm.TypeString},
		}
	}

	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			fieldRecipeName: {
				Type:        llm.TypeString,
				Description: "A creative and fitting name for the recipe.",
			},
			fieldIngredients:     stringList("Ingredients used in the recipe."),
			fieldInstructions:    stringList("Numbered step-by-step preparation instructions."),
			fieldRecommendations: stringList("Recommendations, notes and tips for the recipe."),
		},
		Required: append([]string(nil), recipeFields...),
		Order:    append([]string(nil), recipeFields...),
	}
}

// ParseRecipe decodes and validates raw model output. Malformed JSON yields an
// error wrapping ErrResponseParse; JSON that is not an object with all four
// fields of the right type yields one wrapping ErrSchemaValidation. Unknown
// fields are ignored.
func ParseRecipe(raw string) (*types.RecipeResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: expected a JSON object, got %s", ErrSchemaValidation, typeErr.Value)
		}
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: expected a JSON object, got null", ErrSchemaValidation)
	}

	var (
		result   types.RecipeResult
		problems []string
	)
	check := func(field, problem string) {
		if problem != "" {
			problems = append(problems, field+" "+problem)
		}
	}

	var problem string
	result.RecipeName, problem = requireString(fields, fieldRecipeName)
	check(fieldRecipeName, problem)
	result.Ingredients, problem = requireStrings(fields, fieldIngredients)
	check(fieldIngredients, problem)
	result.Instructions, problem = requireStrings(fields, fieldInstructions)
	check(fieldInstructions, problem)
	result.Recommendations, problem = requireStrings(fields, fieldRecommendations)
	check(fieldRecommendations, problem)

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSchemaValidation, strings.Join(problems, "; "))
	}
	return &result, nil
}

func isAbsent(raw json.RawMessage, ok bool) bool {
	return !ok || strings.TrimSpace(string(raw)) == "null"
}

func requireString(fields map[string]json.RawMessage, key string) (string, string) {
	raw, ok := fields[key]
	if isAbsent(raw, ok) {
		return "", "is missing"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", "must be a string"
	}
	if strings.TrimSpace(s) == "" {
		return "", "must not be empty"
	}
	return s, ""
}

func requireStrings(fields map[string]json.RawMessage, key string) ([]string, string) {
	raw, ok := fields[key]
	if isAbsent(raw, ok) {
		return nil, "is missing"
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, "must be an array of strings"
	}
	// "[]" decodes to an empty, non-nil slice; keep it that way in the output.
	if list == nil {
		list = []string{}
	}
	return list, ""
}
