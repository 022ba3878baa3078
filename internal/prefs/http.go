package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"fridgefeast/internal/ai"
)

// Resolver finds the calling session's store, creating the session if needed.
type Resolver func(w http.ResponseWriter, r *http.Request) *Store

type Server struct {
	resolve Resolver
}

func NewServer(resolve Resolver) *Server {
	return &Server{resolve: resolve}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/prefs", s.handleIndex)
	mux.HandleFunc("GET /api/prefs/{key}", s.handleGet)
	mux.HandleFunc("PUT /api/prefs/{key}", s.handlePut)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	keys, err := s.resolve(w, r).Stored(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list preferences", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list preferences"})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"stored": keys})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.resolve(w, r))
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, store *Store) {
	ctx := r.Context()
	var v any
	switch r.PathValue("key") {
	case "profile":
		v = store.Profile(ctx)
	case "filters":
		v = store.LastFilters(ctx)
	case "saved":
		v = store.Saved(ctx)
	case "cooked":
		v = store.Cooked(ctx)
	case "feedback":
		v = store.Feedback(ctx)
	default:
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := s.resolve(w, r)
	key := r.PathValue("key")

	var err error
	switch key {
	case "profile":
		var p Profile
		if err = decode(w, r, &p); err == nil {
			err = store.SetProfile(ctx, p)
		}
	case "filters":
		var f ai.Filters
		if err = decode(w, r, &f); err == nil {
			err = store.SetLastFilters(ctx, f)
		}
	case "saved", "cooked":
		var list []Entry
		if err = decode(w, r, &list); err == nil {
			for i := range list {
				if verr := ai.Validate(list[i]); verr != nil {
					err = fmt.Errorf("%w: entry %d: %v", errBadBody, i, verr)
					break
				}
			}
		}
		if err == nil && key == "saved" {
			err = store.SetSaved(ctx, list)
		} else if err == nil {
			err = store.SetCooked(ctx, list)
		}
	case "feedback":
		var fb Feedback
		if err = decode(w, r, &fb); err == nil {
			for id, sentiment := range fb {
				if !sentiment.Valid() {
					err = fmt.Errorf("%w: invalid sentiment %q for %s", errBadBody, sentiment, id)
					break
				}
			}
		}
		if err == nil {
			err = store.SetFeedback(ctx, fb)
		}
	default:
		http.NotFound(w, r)
		return
	}

	if errors.Is(err, errTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return
	}
	if errors.Is(err, errBadBody) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to store preference", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store preference"})
		return
	}
	s.respond(w, r, store)
}

const maxBody = 1 << 20

var (
	errBadBody  = errors.New("invalid request body")
	errTooLarge = errors.New("request body too large")
)

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return fmt.Errorf("%w: limit is %d bytes", errTooLarge, mbe.Limit)
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if p, ok := v.(*Profile); ok {
		if err := ai.Validate(*p); err != nil {
			return fmt.Errorf("%w: %v", errBadBody, err)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write json response", "error", err)
	}
}
