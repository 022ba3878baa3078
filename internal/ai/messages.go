package ai

import (
	"fmt"
	"strings"
)

const (
	visionSystemMessage = "Return strictly valid JSON. Never include commentary."

	visionPrompt = `Analyze the kitchen photo and list visible edible ingredients.
- Canonical lowercase names.
- Include category if obvious (produce, dairy, protein, grain, condiment, spice, beverage).
- Include confidence 0..1.
- Exclude utensils/containers/brands.
Output ONLY JSON of the form {"ingredients": [{name, category?, confidence, quantity?}]}.`
)

type constraint struct {
	on   func(Filters) *bool
	text string
}

var constraints = []constraint{
	{func(f Filters) *bool { return f.Quick }, "Each recipe total time <= 30 minutes."},
	{func(f Filters) *bool { return f.Vegetarian }, "Strictly vegetarian (no meat/fish/gelatin)."},
	{func(f Filters) *bool { return f.Vegan }, "Strictly vegan (no animal products)."},
	{func(f Filters) *bool { return f.GlutenFree }, "Gluten-free."},
	{func(f Filters) *bool { return f.DairyFree }, "Dairy-free."},
	{func(f Filters) *bool { return f.NutFree }, "Peanut & tree-nut free."},
	{func(f Filters) *bool { return f.ShellfishFree }, "Shellfish-free."},
	{func(f Filters) *bool { return f.EggFree }, "Egg-free."},
	{func(f Filters) *bool { return f.SoyFree }, "Soy-free."},
	{func(f Filters) *bool { return f.HighProtein }, "Higher protein focus."},
	{func(f Filters) *bool { return f.LowCarb }, "Lower carbohydrate focus."},
}

// Constraints renders the enabled filters as prompt lines, in a fixed order.
func Constraints(f Filters) []string {
	var lines []string
	for _, c := range constraints {
		if v := c.on(f); v != nil && *v {
			lines = append(lines, c.text)
		}
	}
	return lines
}

func recipeSystemMessage(req RecipeRequest) string {
	excludeIDs := "none"
	if len(req.ExcludeIDs) > 0 {
		excludeIDs = strings.Join(req.ExcludeIDs, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a concise creative chef who outputs strict JSON only.\n")
	fmt.Fprintf(&b, "Create %d distinct recipes as an array of objects with fields:\n", req.Count)
	b.WriteString("id (uuid v4), name, description (1-2 sentences), prep_time_minutes (int),\n")
	b.WriteString("ingredients (array of strings), steps (array of strings), tags (array of strings),\n")
	b.WriteString("health_score (1..10).\n")
	fmt.Fprintf(&b, "Avoid duplicate IDs and near-identical names. Exclude IDs: %s.\n", excludeIDs)
	if len(req.ExcludeNames) > 0 {
		fmt.Fprintf(&b, "Do not repeat these recipes: %s.\n", strings.Join(req.ExcludeNames, "; "))
	}
	b.WriteString("Constraints:\n")
	for _, line := range Constraints(req.Filters) {
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "Return ONLY JSON of the form {\"recipes\": [...]} with %d recipes.", req.Count)
	return b.String()
}

func recipeUserMessage(req RecipeRequest) string {
	return fmt.Sprintf("Use these available ingredients where possible: %s.\n"+
		"Prefer variety across cuisines and proteins. Keep steps clear and realistic.",
		strings.Join(req.Ingredients, ", "))
}
