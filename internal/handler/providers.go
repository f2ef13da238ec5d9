package handler

import (
	"net/http"

	"github.com/BlackMission/mockcalc/internal/auth"
)

// Providers handles GET /providers.
func Providers(registry *auth.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, registry.Names())
	}
}
