package recipes

import (
	"cmp"
	"slices"
	"strings"

	"fridgefeast/internal/ai"
)

type SortKey string

const (
	SortMatch  SortKey = "match"
	SortHealth SortKey = "health"
	SortTime   SortKey = "time"
)

// ParseSortKey maps user input to a sort key, defaulting to match.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortHealth, SortTime, SortMatch:
		return k
	}
	return SortMatch
}

// Sort returns a sorted copy. Ties keep their original order and an unknown
// key sorts by match.
func Sort(list []ai.Recipe, key SortKey) []ai.Recipe {
	out := slices.Clone(list)
	switch key {
	case SortHealth:
		slices.SortStableFunc(out, func(a, b ai.Recipe) int { return cmp.Compare(b.HealthScore, a.HealthScore) })
	case SortTime:
		slices.SortStableFunc(out, func(a, b ai.Recipe) int { return cmp.Compare(a.PrepTimeMinutes, b.PrepTimeMinutes) })
	default:
		slices.SortStableFunc(out, func(a, b ai.Recipe) int { return cmp.Compare(b.MatchScore, a.MatchScore) })
	}
	return out
}

// Dedupe drops incoming recipes whose name matches, ignoring case, an existing
// recipe or an earlier one in the same batch.
func Dedupe(existing, incoming []ai.Recipe) []ai.Recipe {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, r := range existing {
		seen[strings.ToLower(r.Name)] = struct{}{}
	}
	out := make([]ai.Recipe, 0, len(incoming))
	for _, r := range incoming {
		name := strings.ToLower(r.Name)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, r)
	}
	return out
}
