package static

import (
	"crypto/sha256"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
)

//go:embed app.css
var appCSS []byte

//go:embed app.js
var appJS []byte

var (
	CSSAssetPath string
	JSAssetPath  string
)

func Init() {
	CSSAssetPath = assetPath("app", "css", appCSS)
	JSAssetPath = assetPath("app", "js", appJS)
}

func assetPath(name, ext string, content []byte) string {
	hash := fmt.Sprintf("%x", sha256.Sum256(content))
	return fmt.Sprintf("/static/%s.%s.%s", name, hash[:12], ext)
}

// Register serves the content-addressed assets. Init must run first.
func Register(mux *http.ServeMux) {
	serve(mux, CSSAssetPath, "text/css; charset=utf-8", appCSS)
	serve(mux, JSAssetPath, "application/javascript; charset=utf-8", appJS)
}

func serve(mux *http.ServeMux, path, contentType string, body []byte) {
	mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		if _, err := w.Write(body); err != nil {
			slog.ErrorContext(r.Context(), "failed to write static asset", "path", path, "error", err)
		}
	})
}
