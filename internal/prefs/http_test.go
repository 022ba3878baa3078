package prefs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fridgefeast/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(store *Store) *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(func(http.ResponseWriter, *http.Request) *Store { return store }).Register(mux)
	return mux
}

func do(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestPrefsAPIRoundTrip(t *testing.T) {
	mux := newTestMux(New(cache.NewInMemoryCache(), "s"))

	rr := do(t, mux, http.MethodGet, "/api/prefs/saved", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = do(t, mux, http.MethodPut, "/api/prefs/feedback", `{"r1":"like"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"r1":"like"}`, rr.Body.String())

	rr = do(t, mux, http.MethodPut, "/api/prefs/profile", `{"defaultSort":"time"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, mux, http.MethodGet, "/api/prefs/profile", "")
	var p Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "time", p.DefaultSort)

	rr = do(t, mux, http.MethodPut, "/api/prefs/filters", `{"vegan":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"vegan":true}`, rr.Body.String())
}

func TestPrefsAPIAppliesCaps(t *testing.T) {
	mux := newTestMux(New(cache.NewInMemoryCache(), "s"))
	entries := make([]Entry, 0, 201)
	for range 201 {
		entries = append(entries, Entry{ID: "x", Name: "y", At: 1})
	}
	body, _ := json.Marshal(entries)
	rr := do(t, mux, http.MethodPut, "/api/prefs/saved", string(body))
	require.Equal(t, http.StatusOK, rr.Code)

	var got []Entry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got, MaxEntries)
}

func TestPrefsAPIRejectsBadBodies(t *testing.T) {
	mux := newTestMux(New(cache.NewInMemoryCache(), "s"))
	for name, tc := range map[string]struct{ path, body string }{
		"not json":      {"/api/prefs/saved", `nope`},
		"missing id":    {"/api/prefs/cooked", `[{"name":"x","at":1}]`},
		"bad sentiment": {"/api/prefs/feedback", `{"r1":"love"}`},
		"bad sort":      {"/api/prefs/profile", `{"defaultSort":"alphabetical"}`},
	} {
		t.Run(name, func(t *testing.T) {
			rr := do(t, mux, http.MethodPut, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
}

func TestPrefsAPIUnknownKey(t *testing.T) {
	mux := newTestMux(New(cache.NewInMemoryCache(), "s"))
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/api/prefs/wishlist", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodPut, "/api/prefs/wishlist", "{}").Code)
}

func TestPrefsAPIDisabledStore(t *testing.T) {
	mux := newTestMux(nil)
	rr := do(t, mux, http.MethodPut, "/api/prefs/feedback", `{"r1":"like"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{}`, rr.Body.String())
}

func TestPrefsAPIListsStoredKeys(t *testing.T) {
	store := New(cache.NewInMemoryCache(), "s")
	mux := newTestMux(store)

	rr := do(t, mux, http.MethodGet, "/api/prefs", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"stored":[]}`, rr.Body.String())

	require.NoError(t, store.Claim(t.Context()))
	do(t, mux, http.MethodPut, "/api/prefs/saved", `[{"id":"r1","name":"Soup","at":1}]`)
	do(t, mux, http.MethodPut, "/api/prefs/profile", `{"vegan":true}`)

	rr = do(t, mux, http.MethodGet, "/api/prefs", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"stored":["profile","saved"]}`, rr.Body.String())
}

func TestPrefsAPIRejectsOversizedBodies(t *testing.T) {
	mux := newTestMux(New(cache.NewInMemoryCache(), "s"))
	rr := do(t, mux, http.MethodPut, "/api/prefs/profile", `{"allergens":["`+strings.Repeat("a", maxBody)+`"]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	rr = do(t, mux, http.MethodGet, "/api/prefs/profile", "")
	assert.JSONEq(t, `{}`, rr.Body.String())
}
