package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks v against its struct tags.
func Validate(v any) error {
	return validate.Struct(v)
}

// DecodeIngredients parses model output into validated ingredients.
func DecodeIngredients(content string) ([]Ingredient, error) {
	return decodeList[Ingredient](content, "ingredients", nil)
}

// DecodeDrafts parses model output into validated recipe drafts.
func DecodeDrafts(content string) ([]Draft, error) {
	return decodeList(content, "recipes", func(d *Draft) {
		d.ID = strings.ToLower(strings.TrimSpace(d.ID))
		if d.Tags == nil {
			d.Tags = []string{}
		}
	})
}

// decodeList accepts either a bare JSON array or an object wrapping the array
// under key, which is what JSON-schema response formats force on us.
func decodeList[T any](content, key string, fix func(*T)) ([]T, error) {
	content = stripCodeFence(content)
	if content == "" {
		content = "[]"
	}
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrUnparseable)
	}

	raw := json.RawMessage(content)
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
		}
		inner, ok := wrapper[key]
		if !ok {
			return nil, fmt.Errorf("%w: object without %q", ErrInvalidShape, key)
		}
		raw = inner
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}

	var errs []error
	for i := range items {
		if fix != nil {
			fix(&items[i])
		}
		if err := validate.Struct(items[i]); err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
