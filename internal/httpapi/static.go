package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// spaFileServer serves a built single-page-app bundle and falls back to
// index.html for client-side routes, so deep links into the desktop
// app's own web UI don't 404 on refresh.
func spaFileServer(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		clean := filepath.Clean(path)
		if strings.HasPrefix(clean, "..") {
			http.NotFound(w, r)
			return
		}

		abs := filepath.Join(dir, clean)
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}

		if !strings.Contains(clean, ".") {
			r2 := r.Clone(r.Context())
			r2.URL.Path = "/index.html"
			fs.ServeHTTP(w, r2)
			return
		}

		http.NotFound(w, r)
	})
}
