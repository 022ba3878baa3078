package kitchen

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fridgefeast/internal/cache"
	"fridgefeast/internal/prefs"
	"fridgefeast/internal/recipes"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	CookieName = "ff_session"
	SessionTTL = 24 * time.Hour
	cookieAge  = 365 * 24 * time.Hour
)

var nowFn = time.Now

// Registry holds live sessions in memory. Preferences live in the cache under
// the session id, so a returning cookie gets its preferences back after a
// restart even though the recipe list is gone.
type Registry struct {
	svc   *recipes.Service
	cache cache.ListCache

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(svc *recipes.Service, c cache.ListCache) *Registry {
	return &Registry{svc: svc, cache: c, sessions: map[string]*Session{}}
}

// FromRequest returns the caller's session, starting one and setting the
// cookie when the request has none. Cookies naming an id this registry never
// issued are replaced rather than adopted.
func (reg *Registry) FromRequest(w http.ResponseWriter, r *http.Request) *Session {
	ctx := r.Context()
	id := ""
	if cookie, err := r.Cookie(CookieName); err == nil {
		if parsed, err := uuid.Parse(cookie.Value); err == nil && reg.issued(ctx, parsed.String()) {
			id = parsed.String()
		}
	}
	if id == "" {
		id = uuid.NewString()
		if err := prefs.New(reg.cache, id).Claim(ctx); err != nil {
			slog.WarnContext(ctx, "failed to record new session", "error", err)
		}
		setCookie(w, id)
	}
	return reg.session(ctx, id)
}

func (reg *Registry) issued(ctx context.Context, id string) bool {
	reg.mu.Lock()
	_, live := reg.sessions[id]
	reg.mu.Unlock()
	if live {
		return true
	}
	ok, err := prefs.New(reg.cache, id).Issued(ctx)
	if err != nil {
		// storage errors keep the cookie
		slog.WarnContext(ctx, "failed to look up session", "error", err)
		return true
	}
	return ok
}

// Store resolves the caller's preference store.
func (reg *Registry) Store(w http.ResponseWriter, r *http.Request) *prefs.Store {
	return reg.FromRequest(w, r).Prefs()
}

func (reg *Registry) session(ctx context.Context, id string) *Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if s, ok := reg.sessions[id]; ok {
		s.touch()
		return s
	}
	s := NewSession(ctx, id, reg.svc, prefs.New(reg.cache, id))
	reg.sessions[id] = s
	return s
}

// Collector exports the live session count.
func (reg *Registry) Collector() prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fridgefeast_live_sessions",
		Help: "Sessions currently held in memory.",
	}, func() float64 { return float64(reg.Len()) })
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}

// Sweep drops sessions idle for longer than SessionTTL.
func (reg *Registry) Sweep(ctx context.Context) int {
	cutoff := nowFn().Add(-SessionTTL)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	removed := 0
	for id, s := range reg.sessions {
		if s.idleSince().Before(cutoff) {
			delete(reg.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.InfoContext(ctx, "swept idle sessions", "removed", removed, "remaining", len(reg.sessions))
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (reg *Registry) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.Sweep(ctx)
		}
	}
}

func setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  nowFn().Add(cookieAge),
		MaxAge:   int(cookieAge / time.Second),
	})
}
