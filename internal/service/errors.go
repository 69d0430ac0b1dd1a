package service

import (
	"errors"
	"fmt"
)

// FailureKind names the stage at which recipe generation failed.
type FailureKind string

const (
	KindPromptBuild      FailureKind = "prompt_build"
	KindModelInvocation  FailureKind = "model_invocation"
	KindResponseParse    FailureKind = "response_parse"
	KindSchemaValidation FailureKind = "schema_validation"
)

var (
	// ErrNoIngredients is returned for an empty ingredient list.
	ErrNoIngredients = errors.New("at least one ingredient is required")
	// ErrInvalidIngredient is returned when an ingredient name is blank after cleanup.
	ErrInvalidIngredient = errors.New("invalid ingredient")

	ErrPromptBuild      = errors.New("prompt build failed")
	ErrModelInvocation  = errors.New("model invocation failed")
	ErrResponseParse    = errors.New("model response is not valid JSON")
	ErrSchemaValidation = errors.New("model response does not match the recipe schema")
)

var kindSentinels = map[FailureKind]error{
	KindPromptBuild:      ErrPromptBuild,
	KindModelInvocation:  ErrModelInvocation,
	KindResponseParse:    ErrResponseParse,
	KindSchemaValidation: ErrSchemaValidation,
}

// GenerationError is the failure outcome of one recipe generation. RawOutput
// holds the model text when there was any; it is for operator logs only.
type GenerationError struct {
	Kind      FailureKind
	RawOutput string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("recipe generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e.Kind, so errors.Is(err, ErrModelInvocation)
// holds even when the cause is a provider error.
func (e *GenerationError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// IsInputError reports whether err was caused by the caller's ingredients
// rather than by the model.
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoIngredients) || errors.Is(err, ErrInvalidIngredient)
}
