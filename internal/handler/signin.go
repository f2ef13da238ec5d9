package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/BlackMission/mockcalc/internal/domain"
	"github.com/BlackMission/mockcalc/internal/gate"
)

// SignIn handles GET /auth/signin/{provider}.
// It remembers the browser in a nonce cookie and redirects to the provider's consent page.
func SignIn(g *gate.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerName := r.PathValue("provider")
		if providerName == "" {
			writeError(w, http.StatusBadRequest, "missing provider")
			return
		}

		authURL, err := g.BeginSignIn(w, r, providerName)
		if err != nil {
			if errors.Is(err, domain.ErrProviderNotFound) {
				writeError(w, http.StatusBadRequest, "unknown provider")
				return
			}
			slog.Error("begin sign-in", "provider", providerName, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to start sign-in")
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// SignOut handles POST /auth/signout.
func SignOut(g *gate.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.EndSession(w, r)
		if wantsJSON(r) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

type sessionResponse struct {
	Status   domain.SessionStatus `json:"status"`
	Label    string               `json:"label,omitempty"`
	Provider string               `json:"provider,omitempty"`
}

// Session handles GET /api/session.
func Session(g *gate.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := g.Status(r)
		resp := sessionResponse{Status: v.Status, Label: v.Label()}
		if v.Session != nil {
			resp.Provider = v.Session.Profile.Provider
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, resp)
	}
}
