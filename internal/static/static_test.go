package static

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAssetsAreContentAddressed(t *testing.T) {
	Init()
	mux := http.NewServeMux()
	Register(mux)

	for path, ctype := range map[string]string{
		CSSAssetPath: "text/css; charset=utf-8",
		JSAssetPath:  "application/javascript; charset=utf-8",
	} {
		if !strings.HasPrefix(path, "/static/app.") {
			t.Fatalf("unexpected asset path %q", path)
		}
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s: status %d", path, rr.Code)
		}
		if got := rr.Header().Get("Content-Type"); got != ctype {
			t.Fatalf("GET %s: content type %q", path, got)
		}
		if !strings.Contains(rr.Header().Get("Cache-Control"), "immutable") {
			t.Fatalf("GET %s: expected immutable caching", path)
		}
	}
}
