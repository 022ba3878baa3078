package ai

import (
	"context"
)

// Ingredient is one item the vision model saw in a photo.
type Ingredient struct {
	Name       string  `json:"name" validate:"required"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence" validate:"min=0,max=1" jsonschema:"minimum=0,maximum=1"`
	Quantity   string  `json:"quantity,omitempty"`
}

// Filters are optional dietary switches. Unset keys are nil and impose no constraint.
type Filters struct {
	Vegetarian    *bool `json:"vegetarian,omitempty"`
	Vegan         *bool `json:"vegan,omitempty"`
	GlutenFree    *bool `json:"glutenFree,omitempty"`
	DairyFree     *bool `json:"dairyFree,omitempty"`
	NutFree       *bool `json:"nutFree,omitempty"`
	ShellfishFree *bool `json:"shellfishFree,omitempty"`
	EggFree       *bool `json:"eggFree,omitempty"`
	SoyFree       *bool `json:"soyFree,omitempty"`
	Quick         *bool `json:"quick,omitempty"`
	HighProtein   *bool `json:"highProtein,omitempty"`
	LowCarb       *bool `json:"lowCarb,omitempty"`
}

// Draft is a recipe as the generator returns it, before a match score is attached.
// A match_score in the model payload has nowhere to land and is dropped.
type Draft struct {
	ID              string   `json:"id" validate:"required,uuid"`
	Name            string   `json:"name" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	PrepTimeMinutes int      `json:"prep_time_minutes" validate:"min=1,max=240" jsonschema:"minimum=1,maximum=240"`
	Ingredients     []string `json:"ingredients" validate:"min=2,dive,required" jsonschema:"minItems=2"`
	Steps           []string `json:"steps" validate:"min=2,dive,required" jsonschema:"minItems=2"`
	Tags            []string `json:"tags" validate:"dive,required"`
	HealthScore     int      `json:"health_score" validate:"min=1,max=10" jsonschema:"minimum=1,maximum=10"`
}

// Recipe is a validated draft with a locally computed match score.
type Recipe struct {
	Draft
	MatchScore int    `json:"match_score" validate:"min=1,max=10" jsonschema:"-"`
	ImageURL   string `json:"image_url,omitempty" validate:"omitempty,url" jsonschema:"-"`
}

// RecipeRequest is everything the generator needs to produce a batch.
type RecipeRequest struct {
	Ingredients  []string
	Filters      Filters
	ExcludeIDs   []string
	ExcludeNames []string
	Count        int
}

// Vision turns a photo into ingredients. image is a data URL or raw base64 payload.
type Vision interface {
	Ingredients(ctx context.Context, image string) ([]Ingredient, error)
}

// Generator turns ingredients and filters into recipe drafts.
type Generator interface {
	Recipes(ctx context.Context, req RecipeRequest) ([]Draft, error)
}

// Provider is a model backend able to do both stages.
type Provider interface {
	Vision
	Generator
	Name() string
}
