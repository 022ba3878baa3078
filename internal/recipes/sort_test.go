package recipes

import (
	"testing"

	"fridgefeast/internal/ai"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func recipe(name string, match, health, prep int) ai.Recipe {
	return ai.Recipe{Draft: ai.Draft{Name: name, HealthScore: health, PrepTimeMinutes: prep}, MatchScore: match}
}

func names(list []ai.Recipe) []string {
	return lo.Map(list, func(r ai.Recipe, _ int) string { return r.Name })
}

func TestSort(t *testing.T) {
	list := []ai.Recipe{
		recipe("a", 5, 7, 30),
		recipe("b", 9, 7, 10),
		recipe("c", 5, 9, 10),
		recipe("d", 9, 3, 45),
	}
	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortMatch, []string{"b", "d", "a", "c"}},
		{SortHealth, []string{"c", "a", "b", "d"}},
		{SortTime, []string{"b", "c", "a", "d"}},
		{SortKey("alphabetical"), []string{"b", "d", "a", "c"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.want, names(Sort(list, tt.key)))
		})
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(list), "Sort must not reorder its input")
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortHealth, ParseSortKey(" Health "))
	assert.Equal(t, SortTime, ParseSortKey("time"))
	assert.Equal(t, SortMatch, ParseSortKey(""))
	assert.Equal(t, SortMatch, ParseSortKey("rating"))
}

func TestDedupe(t *testing.T) {
	existing := []ai.Recipe{recipe("Tomato Soup", 1, 1, 1)}
	incoming := []ai.Recipe{
		recipe("tomato soup", 1, 1, 1),
		recipe("Green Salad", 1, 1, 1),
		recipe("GREEN SALAD", 1, 1, 1),
		recipe("Omelette", 1, 1, 1),
	}
	assert.Equal(t, []string{"Green Salad", "Omelette"}, names(Dedupe(existing, incoming)))
	assert.Empty(t, Dedupe(nil, nil))
}
