package kitchen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"fridgefeast/internal/ai"
	"fridgefeast/internal/illustrate"
	"fridgefeast/internal/prefs"
	"fridgefeast/internal/recipes"

	"github.com/samber/lo"
)

type Stage string

const (
	StageIdle    Stage = "idle"
	StageVision  Stage = "vision"
	StageRecipes Stage = "recipes"
)

var (
	ErrBusy          = errors.New("another step is still running")
	ErrNoIngredients = errors.New("no ingredients to cook with")
	ErrUnknownRecipe = errors.New("unknown recipe")
)

// Session is one visitor's kitchen: the detected ingredients, every recipe
// shown so far and the step currently running. Only one step runs at a time.
type Session struct {
	ID    string
	svc   *recipes.Service
	prefs *prefs.Store

	mu          sync.Mutex
	stage       Stage
	analyzed    bool
	ingredients []ai.Ingredient
	recipes     []ai.Recipe
	excludeIDs  []string
	cards       map[string]*illustrate.Card
	errMsg      string
	sortKey     recipes.SortKey
	filters     ai.Filters
	lastSeen    time.Time
}

func NewSession(ctx context.Context, id string, svc *recipes.Service, store *prefs.Store) *Session {
	return &Session{
		ID:       id,
		svc:      svc,
		prefs:    store,
		stage:    StageIdle,
		cards:    map[string]*illustrate.Card{},
		sortKey:  recipes.ParseSortKey(store.Profile(ctx).DefaultSort),
		filters:  store.LastFilters(ctx),
		lastSeen: nowFn(),
	}
}

func (s *Session) Prefs() *prefs.Store { return s.prefs }

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = nowFn()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// begin claims the session for a step. The caller must call end.
func (s *Session) begin(stage Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageIdle {
		return ErrBusy
	}
	s.stage = stage
	s.errMsg = ""
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.stage = StageIdle
	s.mu.Unlock()
}

func (s *Session) fail(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

// Analyze replaces the ingredient list with what the photo shows. On failure
// the previous ingredients stay.
func (s *Session) Analyze(ctx context.Context, image string) error {
	if err := s.begin(StageVision); err != nil {
		return err
	}
	defer s.end()

	ingredients, err := s.svc.Detect(ctx, image)
	if err != nil {
		_, msg := recipes.VisionError(err)
		s.fail(msg)
		return err
	}

	s.mu.Lock()
	s.analyzed = true
	s.ingredients = ingredients
	s.mu.Unlock()
	return nil
}

func (s *Session) RemoveIngredient(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.ingredients) {
		return fmt.Errorf("no ingredient at %d", index)
	}
	s.ingredients = slices.Delete(s.ingredients, index, index+1)
	return nil
}

// Generate asks for count more recipes, excluding everything already shown,
// and appends the ones whose names are new.
func (s *Session) Generate(ctx context.Context, filters ai.Filters, count int) ([]ai.Recipe, error) {
	s.mu.Lock()
	if len(s.ingredients) == 0 {
		s.mu.Unlock()
		return nil, ErrNoIngredients
	}
	if s.stage != StageIdle {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.stage = StageRecipes
	s.errMsg = ""
	s.filters = filters
	req := recipes.SuggestRequest{
		Ingredients:  lo.Map(s.ingredients, func(i ai.Ingredient, _ int) recipes.IngredientName { return recipes.IngredientName{Name: i.Name} }),
		Filters:      filters,
		ExcludeIDs:   slices.Clone(s.excludeIDs),
		ExcludeNames: lo.Map(s.recipes, func(r ai.Recipe, _ int) string { return r.Name }),
		Count:        &count,
	}
	s.mu.Unlock()
	defer s.end()

	if err := s.prefs.SetLastFilters(ctx, filters); err != nil {
		slog.WarnContext(ctx, "failed to remember filters", "session", s.ID, "error", err)
	}

	batch, err := s.svc.Suggest(ctx, req)
	if err != nil {
		_, msg := recipes.RecipeError(err)
		s.fail(msg)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var fresh []ai.Recipe
	for _, r := range recipes.Dedupe(s.recipes, batch) {
		if _, seen := s.cards[r.ID]; seen {
			continue
		}
		s.recipes = append(s.recipes, r)
		s.excludeIDs = append(s.excludeIDs, r.ID)
		s.cards[r.ID] = &illustrate.Card{}
		fresh = append(fresh, r)
	}
	return fresh, nil
}

// Recipes returns every recipe shown so far, sorted by key.
func (s *Session) Recipes(key recipes.SortKey) []ai.Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recipes.Sort(s.recipes, key)
}

func (s *Session) Recipe(id string) (ai.Recipe, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Find(s.recipes, func(r ai.Recipe) bool { return r.ID == id })
}

func (s *Session) SetSort(ctx context.Context, key recipes.SortKey) error {
	s.mu.Lock()
	s.sortKey = key
	s.mu.Unlock()

	profile := s.prefs.Profile(ctx)
	profile.DefaultSort = string(key)
	return s.prefs.SetProfile(ctx, profile)
}

func (s *Session) Card(id string) (*illustrate.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	return c, ok
}

// Illustrate opens the recipe's card. The first open asks for a picture and
// a resolved picture becomes the recipe's image_url.
func (s *Session) Illustrate(ctx context.Context, id string) (illustrate.State, string, error) {
	r, ok := s.Recipe(id)
	card, hasCard := s.Card(id)
	if !ok || !hasCard {
		return illustrate.Unrequested, "", ErrUnknownRecipe
	}

	state, url := card.Fetch(ctx, s.svc.Illustrator(), r.Name, r.Ingredients)
	if state == illustrate.Resolved {
		s.mu.Lock()
		for i := range s.recipes {
			if s.recipes[i].ID == id && s.recipes[i].ImageURL == "" {
				s.recipes[i].ImageURL = url
			}
		}
		s.mu.Unlock()
	}
	return state, url, nil
}

func (s *Session) ToggleSaved(ctx context.Context, id string) (bool, error) {
	r, ok := s.Recipe(id)
	if !ok {
		return false, ErrUnknownRecipe
	}
	return s.prefs.ToggleSaved(ctx, r.ID, r.Name)
}

func (s *Session) MarkCooked(ctx context.Context, id string) error {
	r, ok := s.Recipe(id)
	if !ok {
		return ErrUnknownRecipe
	}
	return s.prefs.MarkCooked(ctx, r.ID, r.Name)
}

func (s *Session) SetSentiment(ctx context.Context, id string, sentiment prefs.Sentiment) error {
	if _, ok := s.Recipe(id); !ok {
		return ErrUnknownRecipe
	}
	return s.prefs.SetSentiment(ctx, id, sentiment)
}

// View is a consistent snapshot of the session for rendering.
type View struct {
	Stage       Stage
	Analyzed    bool
	Ingredients []ai.Ingredient
	Recipes     []ai.Recipe
	Error       string
	SortKey     recipes.SortKey
	Filters     ai.Filters
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Stage:       s.stage,
		Analyzed:    s.analyzed,
		Ingredients: slices.Clone(s.ingredients),
		Recipes:     recipes.Sort(s.recipes, s.sortKey),
		Error:       s.errMsg,
		SortKey:     s.sortKey,
		Filters:     s.filters,
	}
}
