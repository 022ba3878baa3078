package ai

import (
	"context"
	"crypto/sha256"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Fixture is a deterministic stand-in for the hosted models, used in mock mode
// and tests. The same request always yields the same recipes, ids included.
type Fixture struct{}

var _ Provider = Fixture{}

func NewFixture() Fixture { return Fixture{} }

func (Fixture) Name() string { return "fixture" }

var fixtureIngredients = []Ingredient{
	{Name: "bell pepper", Confidence: 0.92, Category: "produce"},
	{Name: "cherry tomato", Confidence: 0.9, Category: "produce"},
	{Name: "eggs", Confidence: 0.88, Category: "protein"},
	{Name: "spinach", Confidence: 0.86, Category: "produce"},
	{Name: "cheddar cheese", Confidence: 0.8, Category: "dairy"},
}

var fixtureNames = []string{
	"Quick Veggie Scramble",
	"Cheesy Spinach Quesadilla",
	"Pepper-Tomato Pasta",
	"Tomato Spinach Salad",
	"Sheet-Pan Veggie Bake",
	"Stuffed Bell Peppers",
	"Spinach Omelette",
	"Tomato Rice Bowl",
	"Shakshuka with Peppers",
	"Cheddar Veggie Frittata",
	"Spinach Egg Fried Rice",
	"Roasted Tomato Soup",
}

var fixturePantry = []string{"bell pepper", "cherry tomato", "spinach", "eggs", "cheddar cheese", "olive oil", "salt", "pepper"}

func (Fixture) Ingredients(_ context.Context, _ string) ([]Ingredient, error) {
	out := make([]Ingredient, len(fixtureIngredients))
	copy(out, fixtureIngredients)
	return out, nil
}

// Recipes walks the fixed name pool, skipping anything excluded by id or name,
// until it has req.Count drafts or runs out.
func (Fixture) Recipes(_ context.Context, req RecipeRequest) ([]Draft, error) {
	excludedIDs := lo.SliceToMap(req.ExcludeIDs, func(id string) (string, struct{}) {
		return strings.ToLower(id), struct{}{}
	})
	excludedNames := lo.SliceToMap(req.ExcludeNames, func(n string) (string, struct{}) {
		return strings.ToLower(n), struct{}{}
	})

	var drafts []Draft
	for idx, name := range fixtureNames {
		if len(drafts) >= req.Count {
			break
		}
		id := fixtureID(name)
		if _, ok := excludedIDs[id]; ok {
			continue
		}
		if _, ok := excludedNames[strings.ToLower(name)]; ok {
			continue
		}
		drafts = append(drafts, Draft{
			ID:              id,
			Name:            name,
			Description:     "A simple, tasty dish using your fresh produce.",
			PrepTimeMinutes: 10 + (idx%3)*5,
			Ingredients:     append([]string(nil), fixturePantry[:5+idx%2]...),
			Steps:           []string{"Prep ingredients", "Cook/assemble", "Season and serve"},
			Tags:            []string{"Quick", "Vegetarian"},
			HealthScore:     6 + idx%4,
		})
	}
	return drafts, nil
}

// fixtureID derives a stable version 4 shaped UUID from a recipe name.
func fixtureID(name string) string {
	sum := sha256.Sum256([]byte("fridgefeast/fixture/" + name))
	sum[6] = (sum[6] & 0x0f) | 0x40
	sum[8] = (sum[8] & 0x3f) | 0x80
	return lo.Must(uuid.FromBytes(sum[:16])).String()
}
