package kitchen

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"fridgefeast/internal/ai"
)

type filterField struct {
	key   string
	label string
	field func(*ai.Filters) **bool
}

var filterFields = []filterField{
	{"vegetarian", "Vegetarian", func(f *ai.Filters) **bool { return &f.Vegetarian }},
	{"vegan", "Vegan", func(f *ai.Filters) **bool { return &f.Vegan }},
	{"glutenFree", "Gluten-free", func(f *ai.Filters) **bool { return &f.GlutenFree }},
	{"dairyFree", "Dairy-free", func(f *ai.Filters) **bool { return &f.DairyFree }},
	{"nutFree", "Nut-free", func(f *ai.Filters) **bool { return &f.NutFree }},
	{"shellfishFree", "Shellfish-free", func(f *ai.Filters) **bool { return &f.ShellfishFree }},
	{"eggFree", "Egg-free", func(f *ai.Filters) **bool { return &f.EggFree }},
	{"soyFree", "Soy-free", func(f *ai.Filters) **bool { return &f.SoyFree }},
	{"quick", "Quick (≤30m)", func(f *ai.Filters) **bool { return &f.Quick }},
	{"highProtein", "High-protein", func(f *ai.Filters) **bool { return &f.HighProtein }},
	{"lowCarb", "Low-carb", func(f *ai.Filters) **bool { return &f.LowCarb }},
}

// filtersFromForm reads checkbox values. An unchecked box is sent as nothing,
// which means false here since the form always shows every filter.
func filtersFromForm(form url.Values) ai.Filters {
	var f ai.Filters
	for _, ff := range filterFields {
		on, _ := strconv.ParseBool(form.Get(ff.key))
		if form.Get(ff.key) == "on" {
			on = true
		}
		*ff.field(&f) = &on
	}
	return f
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write json response", "error", err)
	}
}
