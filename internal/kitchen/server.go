package kitchen

import (
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"fridgefeast/internal/ai"
	"fridgefeast/internal/illustrate"
	"fridgefeast/internal/prefs"
	"fridgefeast/internal/recipes"
	"fridgefeast/internal/templates"
)

const maxUpload = 10 << 20

type server struct {
	reg *Registry
}

func NewServer(reg *Registry) *server {
	return &server{reg: reg}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /ingredients/remove", s.handleRemove)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("POST /sort", s.handleSort)
	mux.HandleFunc("POST /recipes/{id}/save", s.handleSave)
	mux.HandleFunc("POST /recipes/{id}/cooked", s.handleCooked)
	mux.HandleFunc("POST /recipes/{id}/feedback", s.handleFeedback)
	mux.HandleFunc("GET /recipes/{id}/image", s.handleImage)
}

type filterOption struct {
	Key     string
	Label   string
	Checked bool
}

type sortOption struct {
	Value    recipes.SortKey
	Label    string
	Selected bool
}

type card struct {
	ai.Recipe
	Image    template.URL
	Saved    bool
	Feedback prefs.Sentiment
}

var imageDataPrefixes = []string{
	"data:image/png;base64,",
	"data:image/jpeg;base64,",
	"data:image/webp;base64,",
	"data:image/gif;base64,",
}

// imageSrc vets an illustration URL for an <img src>. html/template rejects data
// URLs, so the raster ones generators return are passed through as trusted.
func imageSrc(u string) template.URL {
	switch {
	case strings.HasPrefix(u, "https://"), strings.HasPrefix(u, "http://"):
		return template.URL(u)
	}
	for _, p := range imageDataPrefixes {
		if strings.HasPrefix(u, p) {
			return template.URL(u)
		}
	}
	return ""
}

type homeData struct {
	View
	Busy        bool
	Filters     []filterOption
	SortOptions []sortOption
	Recipes     []card
}

var sortOptions = []sortOption{
	{Value: recipes.SortMatch, Label: "Best use of ingredients"},
	{Value: recipes.SortHealth, Label: "Healthiest first"},
	{Value: recipes.SortTime, Label: "Fastest first"},
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.reg.FromRequest(w, r)
	view := sess.View()
	feedback := sess.Prefs().Feedback(ctx)
	saved := map[string]bool{}
	for _, e := range sess.Prefs().Saved(ctx) {
		saved[e.ID] = true
	}

	data := homeData{
		View: view,
		Busy: view.Stage != StageIdle,
	}
	for _, f := range filterFields {
		v := f.field(&view.Filters)
		data.Filters = append(data.Filters, filterOption{Key: f.key, Label: f.label, Checked: *v != nil && **v})
	}
	for _, o := range sortOptions {
		o.Selected = o.Value == view.SortKey
		data.SortOptions = append(data.SortOptions, o)
	}
	for _, rec := range view.Recipes {
		data.Recipes = append(data.Recipes, card{Recipe: rec, Image: imageSrc(rec.ImageURL), Saved: saved[rec.ID], Feedback: feedback[rec.ID]})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Home.Execute(w, data); err != nil {
		slog.ErrorContext(ctx, "home template execute error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.reg.FromRequest(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "an image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read image", http.StatusBadRequest)
		return
	}

	if err := sess.Analyze(ctx, ai.DataURL(data)); err != nil {
		if errors.Is(err, ErrBusy) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		slog.ErrorContext(ctx, "analyze failed", "session", sess.ID, "error", err)
	}
	redirectHome(w, r)
}

func (s *server) handleRemove(w http.ResponseWriter, r *http.Request) {
	sess := s.reg.FromRequest(w, r)
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	if err := sess.RemoveIngredient(index); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	redirectHome(w, r)
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.reg.FromRequest(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	count := recipes.DefaultCount
	if raw := r.FormValue("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid count", http.StatusBadRequest)
			return
		}
		count = n
	}

	_, err := sess.Generate(ctx, filtersFromForm(r.Form), count)
	switch {
	case errors.Is(err, ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, ErrNoIngredients):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		slog.ErrorContext(ctx, "generate failed", "session", sess.ID, "error", err)
	}
	redirectHome(w, r)
}

func (s *server) handleSort(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.reg.FromRequest(w, r)
	if err := sess.SetSort(ctx, recipes.ParseSortKey(r.FormValue("sort"))); err != nil {
		slog.ErrorContext(ctx, "failed to save default sort", "session", sess.ID, "error", err)
	}
	redirectHome(w, r)
}

func (s *server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess := s.reg.FromRequest(w, r)
	_, err := sess.ToggleSaved(r.Context(), r.PathValue("id"))
	s.afterAction(w, r, err)
}

func (s *server) handleCooked(w http.ResponseWriter, r *http.Request) {
	sess := s.reg.FromRequest(w, r)
	s.afterAction(w, r, sess.MarkCooked(r.Context(), r.PathValue("id")))
}

func (s *server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	sess := s.reg.FromRequest(w, r)
	sentiment := prefs.Sentiment(r.FormValue("sentiment"))
	if !sentiment.Valid() {
		http.Error(w, "sentiment must be like or dislike", http.StatusBadRequest)
		return
	}
	s.afterAction(w, r, sess.SetSentiment(r.Context(), r.PathValue("id"), sentiment))
}

func (s *server) afterAction(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrUnknownRecipe) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to store preference", "error", err)
		http.Error(w, "failed to store preference", http.StatusInternalServerError)
		return
	}
	redirectHome(w, r)
}

type imageResponse struct {
	State    string  `json:"state"`
	ImageURL *string `json:"imageUrl"`
}

func (s *server) handleImage(w http.ResponseWriter, r *http.Request) {
	sess := s.reg.FromRequest(w, r)
	state, url, err := sess.Illustrate(r.Context(), r.PathValue("id"))
	if errors.Is(err, ErrUnknownRecipe) {
		http.NotFound(w, r)
		return
	}
	resp := imageResponse{State: state.String()}
	if state == illustrate.Resolved {
		resp.ImageURL = &url
	}
	writeJSON(w, resp)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
