package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 10, "candidatesTokenCount": 20},
	}
}

func newGeminiServer(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewGeminiClient(t.Context(), "test-key", "", "vision-model", srv.URL)
	require.NoError(t, err)
	return client
}

func TestGeminiClientIngredients(t *testing.T) {
	var path string
	var got map[string]any
	client := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(geminiResponse(`{"ingredients":[{"name":"kale","confidence":0.9}]}`))
	})

	ings, err := client.Ingredients(t.Context(), pngImage)
	require.NoError(t, err)
	require.Len(t, ings, 1)
	assert.Equal(t, "kale", ings[0].Name)

	assert.True(t, strings.HasSuffix(path, "/models/vision-model:generateContent"), path)
	contents := got["contents"].([]any)
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "image/png", inline["mimeType"])
}

func TestGeminiClientRecipes(t *testing.T) {
	var path string
	client := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(geminiResponse(`{"recipes":[` + validDraft + `]}`))
	})

	drafts, err := client.Recipes(t.Context(), RecipeRequest{Ingredients: []string{"eggs"}, Count: 1})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Spinach Omelette", drafts[0].Name)
	assert.True(t, strings.HasSuffix(path, "/models/"+defaultGeminiModel+":generateContent"), path)
}

func TestGeminiClientContentErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		response map[string]any
		want     error
	}{
		"no candidates": {map[string]any{"candidates": []any{}}, ErrUnparseable},
		"prose":         {geminiResponse("I cannot help with that"), ErrUnparseable},
		"invalid":       {geminiResponse(`{"recipes":[{"name":"x"}]}`), ErrInvalidShape},
	} {
		t.Run(name, func(t *testing.T) {
			client := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(tc.response)
			})
			_, err := client.Recipes(t.Context(), RecipeRequest{Ingredients: []string{"egg"}, Count: 2})
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGeminiClientTransportErrorIsNotContentError(t *testing.T) {
	calls := 0
	client := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"model overloaded","status":"UNAVAILABLE"}}`))
	})

	_, err := client.Recipes(t.Context(), RecipeRequest{Count: 1})
	require.Error(t, err)
	assert.False(t, IsContentError(err))
	assert.Contains(t, err.Error(), "model overloaded")
	assert.Equal(t, 1, calls, "requests are not retried")
}

func TestGeminiClientReady(t *testing.T) {
	var looked []string
	client := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		looked = append(looked, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/models/vision-model") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"model not found","status":"NOT_FOUND"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"models/` + defaultGeminiModel + `"}`))
	})

	err := Ready(t.Context(), client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vision-model")
	assert.Len(t, looked, 2)
}
