package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fridgefeast/internal/ai"
	"fridgefeast/internal/illustrate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, svc *Service, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	NewServer(svc).Register(mux)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rr
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestRecipesAPI(t *testing.T) {
	svc := NewService(ai.NewFixture(), ai.NewFixture(), nil, false)
	rr := post(t, svc, "/api/recipes", `{"ingredients":[{"name":"eggs"}],"filters":{"quick":true},"count":3}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Recipes []ai.Recipe `json:"recipes"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Recipes, 3)
	for _, r := range body.Recipes {
		assert.GreaterOrEqual(t, r.MatchScore, 1)
		assert.LessOrEqual(t, r.MatchScore, 10)
	}
}

func TestRecipesAPIErrors(t *testing.T) {
	tests := []struct {
		name   string
		genErr error
		body   string
		status int
		msg    string
	}{
		{"bad json", nil, `{`, http.StatusBadRequest, "invalid request body"},
		{"bad count", nil, `{"ingredients":[],"count":20}`, http.StatusBadRequest, ""},
		{"unparseable", fmt.Errorf("%w: nope", ai.ErrUnparseable), `{"ingredients":[]}`, http.StatusBadGateway, "Recipe JSON parse failed"},
		{"invalid shape", fmt.Errorf("%w: nope", ai.ErrInvalidShape), `{"ingredients":[]}`, http.StatusBadGateway, "Invalid recipe schema"},
		{"transport", errors.New("connection refused"), `{"ingredients":[]}`, http.StatusInternalServerError, "Failed to generate recipes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&fakeVision{}, &fakeGenerator{err: tt.genErr}, nil, false)
			rr := post(t, svc, "/api/recipes", tt.body)
			assert.Equal(t, tt.status, rr.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, errorBody(t, rr))
			}
		})
	}
}

func TestVisionAPI(t *testing.T) {
	svc := NewService(ai.NewFixture(), ai.NewFixture(), nil, false)
	rr := post(t, svc, "/api/vision", `{"imageBase64":"data:image/png;base64,iVBORw0KGgo="}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Ingredients []ai.Ingredient `json:"ingredients"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Len(t, body.Ingredients, 5)

	rr = post(t, svc, "/api/vision", `{"imageBase64":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	for err, msg := range map[error]string{
		ai.ErrUnparseable:  "Vision JSON parse failed",
		ai.ErrInvalidShape: "Invalid ingredient schema",
		errors.New("eof"):  "Failed to analyze image",
	} {
		svc := NewService(&fakeVision{err: err}, &fakeGenerator{}, nil, false)
		rr := post(t, svc, "/api/vision", `{"imageBase64":"data:image/png;base64,AAAA"}`)
		assert.Equal(t, msg, errorBody(t, rr))
	}
}

type failingIllustrator struct{}

func (failingIllustrator) Illustrate(_ context.Context, _ string, _ []string) (*string, error) {
	return nil, errors.New("quota exceeded")
}

func TestImageAPI(t *testing.T) {
	rr := post(t, NewService(nil, nil, illustrate.Placeholder{}, false), "/api/image", `{"name":"Soup","ingredients":["leek"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"disabled","imageUrl":"`+illustrate.PlaceholderURL+`"}`, rr.Body.String())

	rr = post(t, NewService(nil, nil, illustrate.None{}, true), "/api/image", `{"name":"Soup"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","imageUrl":null}`, rr.Body.String())

	rr = post(t, NewService(nil, nil, failingIllustrator{}, true), "/api/image", `{"name":"Soup"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"failed"`)
}

func TestAPIRejectsOversizedBodies(t *testing.T) {
	svc := NewService(&fakeVision{}, &fakeGenerator{}, nil, false)
	for path, body := range map[string]string{
		"/api/vision":  `{"imageBase64":"` + strings.Repeat("A", maxVisionBody) + `"}`,
		"/api/recipes": `{"ingredients":[{"name":"` + strings.Repeat("a", maxJSONBody) + `"}]}`,
		"/api/image":   `{"name":"` + strings.Repeat("a", maxJSONBody) + `"}`,
	} {
		t.Run(path, func(t *testing.T) {
			rr := post(t, svc, path, body)
			assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		})
	}
}
