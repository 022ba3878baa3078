package ai

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

type ingredientList struct {
	Ingredients []Ingredient `json:"ingredients" jsonschema:"required"`
}

type draftList struct {
	Recipes []Draft `json:"recipes" jsonschema:"required"`
}

var (
	ingredientSchema = reflectSchema(&ingredientList{})
	recipeSchema     = reflectSchema(&draftList{})
)

// reflectSchema builds an inline JSON schema suitable for a response_format.
func reflectSchema(v any) map[string]any {
	r := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schemaJSON := lo.Must(json.Marshal(r.Reflect(v)))

	var m map[string]any
	lo.Must0(json.Unmarshal(schemaJSON, &m))
	delete(m, "$schema")
	return m
}
