package handler

import (
	"io/fs"
	"net/http"
)

// Page handles GET / by serving index.html from assets.
func Page(assets fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, assets, "index.html")
	}
}

// Static serves the page assets under /static/.
func Static(assets fs.FS) http.Handler {
	return http.StripPrefix("/static/", http.FileServerFS(assets))
}
