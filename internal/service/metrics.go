package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const outcomeSuccess = "success"

var (
	recipeGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pantry_chef_recipe_generations_total",
			Help: "Recipe generations by outcome (success or failure kind)",
		},
		[]string{"outcome"},
	)

	recipeGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pantry_chef_recipe_generation_duration_seconds",
			Help:    "Time spent generating a recipe, model call included",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
)
