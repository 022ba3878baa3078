package templates

import (
	"bytes"
	"strings"
	"testing"
)

func TestHomeRendersEmptyPage(t *testing.T) {
	if err := Init("/static/app.css", "/static/app.js"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	var buf bytes.Buffer
	data := map[string]any{
		"Stage":       "idle",
		"Busy":        false,
		"Analyzed":    false,
		"Ingredients": nil,
		"Filters":     []map[string]any{{"Key": "vegan", "Label": "Vegan", "Checked": true}},
		"SortOptions": []map[string]any{{"Value": "match", "Label": "Best use of ingredients", "Selected": true}},
		"Error":       "Failed to analyze image",
		"Recipes":     nil,
	}
	if err := Home.Execute(&buf, data); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	html := buf.String()
	for _, want := range []string{
		`href="/static/app.css"`,
		`src="/static/app.js"`,
		`name="vegan" value="true" checked`,
		`role="alert"`,
		"let's cook!",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered page missing %q", want)
		}
	}
}
