package recipes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fridgefeast/internal/ai"
	"fridgefeast/internal/illustrate"
	"fridgefeast/internal/scoring"

	"github.com/samber/lo"
)

var ErrInvalidRequest = errors.New("invalid request")

const (
	DefaultCount = 5
	MaxCount     = 10
	minImageLen  = 10
)

type IngredientName struct {
	Name string `json:"name"`
}

type SuggestRequest struct {
	Ingredients  []IngredientName `json:"ingredients" validate:"required"`
	Filters      ai.Filters       `json:"filters"`
	ExcludeIDs   []string         `json:"excludeIds" validate:"dive,uuid"`
	ExcludeNames []string         `json:"excludeNames"`
	Count        *int             `json:"count" validate:"omitnil,min=1,max=10"`
}

type Service struct {
	vision      ai.Vision
	generator   ai.Generator
	illustrator illustrate.Illustrator
	imagesOn    bool
}

func NewService(vision ai.Vision, generator ai.Generator, ill illustrate.Illustrator, imagesEnabled bool) *Service {
	if ill == nil {
		ill = illustrate.Placeholder{}
	}
	return &Service{vision: vision, generator: generator, illustrator: ill, imagesOn: imagesEnabled}
}

func (s *Service) Illustrator() illustrate.Illustrator { return s.illustrator }

// Detect lists the ingredients in a photo given as a data URL or base64 payload.
func (s *Service) Detect(ctx context.Context, image string) ([]ai.Ingredient, error) {
	if len(strings.TrimSpace(image)) < minImageLen {
		return nil, fmt.Errorf("%w: image must be at least %d characters", ErrInvalidRequest, minImageLen)
	}
	if _, _, err := ai.ParseDataURL(image); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	ingredients, err := s.vision.Ingredients(ctx, image)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "detected ingredients", "count", len(ingredients))
	return ingredients, nil
}

// Suggest asks the generator for a batch and returns it scored against the
// given ingredients. Excluded ids and names never come back, even when the
// model ignores the prompt.
func (s *Service) Suggest(ctx context.Context, req SuggestRequest) ([]ai.Recipe, error) {
	// ids are compared lower-case everywhere; the uuid validator only accepts that form
	req.ExcludeIDs = lo.Map(req.ExcludeIDs, func(id string, _ int) string { return strings.ToLower(id) })
	if err := ai.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	count := DefaultCount
	if req.Count != nil {
		count = *req.Count
	}

	names := lo.Map(req.Ingredients, func(i IngredientName, _ int) string { return i.Name })
	excludeIDs := req.ExcludeIDs

	drafts, err := s.generator.Recipes(ctx, ai.RecipeRequest{
		Ingredients:  names,
		Filters:      req.Filters,
		ExcludeIDs:   excludeIDs,
		ExcludeNames: req.ExcludeNames,
		Count:        count,
	})
	if err != nil {
		return nil, err
	}

	excludedIDs := lo.Keyify(excludeIDs)
	excluded := lo.Map(req.ExcludeNames, func(n string, _ int) ai.Recipe { return ai.Recipe{Draft: ai.Draft{Name: n}} })
	fresh := lo.Filter(drafts, func(d ai.Draft, _ int) bool {
		_, skip := excludedIDs[d.ID]
		return !skip
	})
	fresh = lo.UniqBy(fresh, func(d ai.Draft) string { return d.ID })

	detected := scoring.NewSet(names...)
	scored := lo.Map(fresh, func(d ai.Draft, _ int) ai.Recipe {
		return ai.Recipe{Draft: d, MatchScore: scoring.Match(detected, d.Ingredients)}
	})
	scored = Dedupe(excluded, scored)
	if len(scored) > count {
		scored = scored[:count]
	}
	if dropped := len(drafts) - len(scored); dropped > 0 {
		slog.InfoContext(ctx, "dropped generated recipes", "returned", len(drafts), "dropped", dropped)
	}
	return scored, nil
}

type ImageResult struct {
	Status   string  `json:"status"`
	ImageURL *string `json:"imageUrl"`
}

// Illustrate returns a picture for a dish, or a nil URL when there is none.
func (s *Service) Illustrate(ctx context.Context, name string, ingredients []string) (ImageResult, error) {
	url, err := s.illustrator.Illustrate(ctx, name, ingredients)
	if err != nil {
		return ImageResult{Status: "failed"}, err
	}
	if !s.imagesOn {
		return ImageResult{Status: "disabled", ImageURL: url}, nil
	}
	return ImageResult{Status: "ok", ImageURL: url}, nil
}
