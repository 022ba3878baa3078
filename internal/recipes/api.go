package recipes

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fridgefeast/internal/ai"
)

const (
	// base64 grows a 10MB photo to about 13.4MB
	maxVisionBody = 14 << 20
	maxJSONBody   = 1 << 20
)

type server struct {
	svc *Service
}

// NewServer serves the stateless JSON API.
func NewServer(svc *Service) *server {
	return &server{svc: svc}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/vision", s.handleVision)
	mux.HandleFunc("POST /api/recipes", s.handleRecipes)
	mux.HandleFunc("POST /api/image", s.handleImage)
}

type visionRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

type imageRequest struct {
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
}

func (s *server) handleVision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req visionRequest
	if err := decodeBody(w, r, maxVisionBody, &req); err != nil {
		writeError(w, bodyStatus(err, http.StatusBadRequest), "invalid request body")
		return
	}
	ingredients, err := s.svc.Detect(ctx, req.ImageBase64)
	if err != nil {
		status, msg := VisionError(err)
		slog.ErrorContext(ctx, "vision failed", "status", status, "error", err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ingredients": ingredients})
}

func (s *server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SuggestRequest
	if err := decodeBody(w, r, maxJSONBody, &req); err != nil {
		writeError(w, bodyStatus(err, http.StatusBadRequest), "invalid request body")
		return
	}
	recipes, err := s.svc.Suggest(ctx, req)
	if err != nil {
		status, msg := RecipeError(err)
		slog.ErrorContext(ctx, "recipe generation failed", "status", status, "error", err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

func (s *server) handleImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req imageRequest
	if err := decodeBody(w, r, maxJSONBody, &req); err != nil {
		writeJSON(w, bodyStatus(err, http.StatusInternalServerError), map[string]any{"status": "failed", "imageUrl": nil, "error": err.Error()})
		return
	}
	res, err := s.svc.Illustrate(ctx, req.Name, req.Ingredients)
	if err != nil {
		slog.ErrorContext(ctx, "illustration failed", "recipe", req.Name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "failed", "imageUrl": nil, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(v)
}

// bodyStatus is 413 for an oversized body and def for anything else.
func bodyStatus(err error, def int) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return def
}

// VisionError maps a Detect error to a status code and a message fit for users.
func VisionError(err error) (int, string) {
	return classify(err, "Vision JSON parse failed", "Invalid ingredient schema", "Failed to analyze image")
}

// RecipeError maps a Suggest error to a status code and a message fit for users.
func RecipeError(err error) (int, string) {
	return classify(err, "Recipe JSON parse failed", "Invalid recipe schema", "Failed to generate recipes")
}

func classify(err error, unparseable, invalidShape, transport string) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ai.ErrUnparseable):
		return http.StatusBadGateway, unparseable
	case errors.Is(err, ai.ErrInvalidShape):
		return http.StatusBadGateway, invalidShape
	default:
		return http.StatusInternalServerError, transport
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write json response", "error", err)
	}
}
