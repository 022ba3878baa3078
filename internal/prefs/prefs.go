package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"fridgefeast/internal/ai"
	"fridgefeast/internal/cache"
)

const (
	KeyProfile     = "ff.prefs.profile"
	KeyLastFilters = "ff.prefs.filters.lastUsed"
	KeySaved       = "ff.recipes.saved"
	KeyCooked      = "ff.recipes.cooked"
	KeyFeedback    = "ff.recipes.feedback"

	keyIssued = "ff.session.issued"

	MaxEntries      = 200
	CookedRetention = 90 * 24 * time.Hour
)

var nowFn = time.Now

type Profile struct {
	Vegetarian          *bool    `json:"vegetarian,omitempty"`
	Vegan               *bool    `json:"vegan,omitempty"`
	Allergens           []string `json:"allergens,omitempty" validate:"dive,required"`
	DislikedIngredients []string `json:"dislikedIngredients,omitempty" validate:"dive,required"`
	DefaultSort         string   `json:"defaultSort,omitempty" validate:"omitempty,oneof=match health time"`
}

// Entry is a saved or cooked recipe. At is unix milliseconds.
type Entry struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	At   int64  `json:"at" validate:"min=0"`
}

type Sentiment string

const (
	Like    Sentiment = "like"
	Dislike Sentiment = "dislike"
)

func (s Sentiment) Valid() bool { return s == Like || s == Dislike }

type Feedback map[string]Sentiment

// Store is one session's preferences. A nil Store, or one without a cache, is
// disabled: reads return empty defaults and writes do nothing.
type Store struct {
	cache  cache.ListCache
	prefix string
}

func New(c cache.ListCache, session string) *Store {
	if c == nil || session == "" {
		return nil
	}
	return &Store{cache: c, prefix: "prefs/" + session + "/"}
}

func (s *Store) Enabled() bool { return s != nil && s.cache != nil }

// Claim marks the session id as issued. It fails with cache.ErrAlreadyExists
// if the id was issued before.
func (s *Store) Claim(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.cache.Put(ctx, s.prefix+keyIssued, strconv.FormatInt(nowFn().UnixMilli(), 10), cache.IfNoneMatch())
}

// Issued reports whether Claim ran for this session. A disabled store cannot
// tell and accepts every session.
func (s *Store) Issued(ctx context.Context) (bool, error) {
	if !s.Enabled() {
		return true, nil
	}
	return s.cache.Exists(ctx, s.prefix+keyIssued)
}

var apiNames = map[string]string{
	KeyProfile:     "profile",
	KeyLastFilters: "filters",
	KeySaved:       "saved",
	KeyCooked:      "cooked",
	KeyFeedback:    "feedback",
}

// Stored lists the preferences this session has written, by their API name.
func (s *Store) Stored(ctx context.Context) ([]string, error) {
	out := []string{}
	if !s.Enabled() {
		return out, nil
	}
	keys, err := s.cache.List(ctx, s.prefix, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	for _, k := range keys {
		if name, ok := apiNames[k]; ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out, nil
}

func load[T any](ctx context.Context, s *Store, key string, def T) T {
	if !s.Enabled() {
		return def
	}
	r, err := s.cache.Get(ctx, s.prefix+key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			slog.WarnContext(ctx, "failed to read preference", "key", key, "error", err)
		}
		return def
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		slog.WarnContext(ctx, "failed to read preference", "key", key, "error", err)
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.WarnContext(ctx, "ignoring corrupt preference", "key", key, "error", err)
		return def
	}
	return v
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	if !s.Enabled() {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.cache.Put(ctx, s.prefix+key, string(raw), cache.Unconditional()); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

func (s *Store) Profile(ctx context.Context) Profile {
	return load(ctx, s, KeyProfile, Profile{})
}

func (s *Store) SetProfile(ctx context.Context, p Profile) error {
	return s.save(ctx, KeyProfile, p)
}

func (s *Store) LastFilters(ctx context.Context) ai.Filters {
	return load(ctx, s, KeyLastFilters, ai.Filters{})
}

func (s *Store) SetLastFilters(ctx context.Context, f ai.Filters) error {
	return s.save(ctx, KeyLastFilters, f)
}

func (s *Store) Saved(ctx context.Context) []Entry {
	return nonNil(load[[]Entry](ctx, s, KeySaved, nil))
}

// SetSaved keeps the newest MaxEntries by position.
func (s *Store) SetSaved(ctx context.Context, list []Entry) error {
	return s.save(ctx, KeySaved, tail(list, MaxEntries))
}

func (s *Store) Cooked(ctx context.Context) []Entry {
	return nonNil(load[[]Entry](ctx, s, KeyCooked, nil))
}

// SetCooked drops entries older than CookedRetention, then keeps the newest
// MaxEntries by position.
func (s *Store) SetCooked(ctx context.Context, list []Entry) error {
	return s.save(ctx, KeyCooked, tail(pruneCooked(list, nowFn()), MaxEntries))
}

func (s *Store) Feedback(ctx context.Context) Feedback {
	fb := load[Feedback](ctx, s, KeyFeedback, nil)
	if fb == nil {
		return Feedback{}
	}
	return fb
}

func (s *Store) SetFeedback(ctx context.Context, fb Feedback) error {
	return s.save(ctx, KeyFeedback, fb)
}

// ToggleSaved removes the recipe if it is saved and appends it otherwise. It
// reports whether the recipe is saved afterwards.
func (s *Store) ToggleSaved(ctx context.Context, id, name string) (bool, error) {
	saved := s.Saved(ctx)
	if slices.ContainsFunc(saved, func(e Entry) bool { return e.ID == id }) {
		next := slices.DeleteFunc(saved, func(e Entry) bool { return e.ID == id })
		return false, s.SetSaved(ctx, next)
	}
	next := append(saved, Entry{ID: id, Name: name, At: nowFn().UnixMilli()})
	return true, s.SetSaved(ctx, next)
}

// MarkCooked always appends; cooking the same recipe twice is two entries.
func (s *Store) MarkCooked(ctx context.Context, id, name string) error {
	next := append(s.Cooked(ctx), Entry{ID: id, Name: name, At: nowFn().UnixMilli()})
	return s.SetCooked(ctx, next)
}

func (s *Store) SetSentiment(ctx context.Context, id string, sentiment Sentiment) error {
	if !sentiment.Valid() {
		return fmt.Errorf("invalid sentiment %q", sentiment)
	}
	fb := s.Feedback(ctx)
	fb[id] = sentiment
	return s.SetFeedback(ctx, fb)
}

func pruneCooked(list []Entry, now time.Time) []Entry {
	cutoff := now.Add(-CookedRetention).UnixMilli()
	out := make([]Entry, 0, len(list))
	for _, e := range list {
		if e.At >= cutoff {
			out = append(out, e)
		}
	}
	return out
}

func tail(list []Entry, n int) []Entry {
	if len(list) > n {
		list = list[len(list)-n:]
	}
	return nonNil(list)
}

func nonNil(list []Entry) []Entry {
	if list == nil {
		return []Entry{}
	}
	return list
}
