package ai

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestFixtureRecipesAreDeterministicAndValid(t *testing.T) {
	f := NewFixture()
	req := RecipeRequest{Ingredients: []string{"eggs"}, Count: 5}

	first, err := f.Recipes(t.Context(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := f.Recipes(t.Context(), req)

	if len(first) != 5 {
		t.Fatalf("expected 5 recipes, got %d", len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Name != second[i].Name {
			t.Fatalf("fixture is not deterministic at %d", i)
		}
		id, err := uuid.Parse(first[i].ID)
		if err != nil || id.Version() != 4 {
			t.Fatalf("expected v4 uuid, got %q (%v)", first[i].ID, err)
		}
		if err := Validate(first[i]); err != nil {
			t.Fatalf("fixture draft %d fails validation: %v", i, err)
		}
	}
}

func TestFixtureRecipesHonourExclusions(t *testing.T) {
	f := NewFixture()
	first, _ := f.Recipes(t.Context(), RecipeRequest{Count: 3})

	excludeNames := []string{strings.ToUpper(first[0].Name)}
	excludeIDs := []string{first[1].ID}
	next, err := f.Recipes(t.Context(), RecipeRequest{Count: 3, ExcludeIDs: excludeIDs, ExcludeNames: excludeNames})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, d := range next {
		if strings.EqualFold(d.Name, first[0].Name) || d.ID == first[1].ID {
			t.Fatalf("excluded recipe %q came back", d.Name)
		}
	}
	if len(next) != 3 {
		t.Fatalf("expected 3 recipes after exclusions, got %d", len(next))
	}
}

func TestFixtureIngredientsAreCopies(t *testing.T) {
	f := NewFixture()
	a, _ := f.Ingredients(t.Context(), "data:image/png;base64,AAAA")
	a[0].Name = "changed"
	b, _ := f.Ingredients(t.Context(), "data:image/png;base64,AAAA")
	if b[0].Name != "bell pepper" {
		t.Fatalf("fixture ingredients were mutated through a previous result")
	}
}
