// Package scoring rates how well a recipe uses the ingredients a user has on hand.
package scoring

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	stapleWeight   = 0.25
	standardWeight = 1.0

	MinScore = 1
	MaxScore = 10
)

// staples are pantry items nearly every kitchen has. Matching on them says little
// about whether a recipe fits what was photographed.
var staples = map[string]struct{}{
	"salt":      {},
	"pepper":    {},
	"oil":       {},
	"water":     {},
	"flour":     {},
	"sugar":     {},
	"butter":    {},
	"vinegar":   {},
	"soy sauce": {},
}

// Set is a set of canonical ingredient names.
type Set map[string]struct{}

// NewSet canonicalises names into a Set.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[Canonical(n)] = struct{}{}
	}
	return s
}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Canonical lower-cases and NFC-normalises an ingredient name. It is idempotent.
func Canonical(name string) string {
	return norm.NFC.String(strings.ToLower(name))
}

// IsStaple reports whether the canonical name is a low-weight pantry staple.
func IsStaple(name string) bool {
	_, ok := staples[name]
	return ok
}

func weight(name string) float64 {
	if IsStaple(name) {
		return stapleWeight
	}
	return standardWeight
}

// Match scores the weighted overlap between detected and recipeIngredients as an
// integer in [MinScore, MaxScore]. Duplicates and ordering do not matter.
func Match(detected Set, recipeIngredients []string) int {
	recipe := NewSet(recipeIngredients...)
	have := make(Set, len(detected))
	for name := range detected {
		have[Canonical(name)] = struct{}{}
	}

	var union, inter float64
	for name := range recipe {
		w := weight(name)
		union += w
		if have.Has(name) {
			inter += w
		}
	}
	for name := range have {
		if recipe.Has(name) {
			continue // already counted
		}
		union += weight(name)
	}

	raw := 0.0
	if union > 0 {
		raw = inter / union
	}
	return clamp(int(math.Round(1+9*raw)))
}

func clamp(score int) int {
	return max(MinScore, min(MaxScore, score))
}
