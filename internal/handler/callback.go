package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/BlackMission/mockcalc/internal/domain"
	"github.com/BlackMission/mockcalc/internal/gate"
)

// Callback handles GET /auth/callback/{provider}.
// It validates the state token, exchanges the code with the provider, issues
// the session cookie, and redirects back into the app.
func Callback(g *gate.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerName := r.PathValue("provider")

		returnTo, err := g.Complete(w, r, providerName)
		if err != nil {
			status, msg := callbackError(err)
			if status >= http.StatusInternalServerError {
				slog.Error("sign-in failed", "provider", providerName, "error", err)
			} else {
				slog.Warn("sign-in rejected", "provider", providerName, "error", err)
			}
			writeError(w, status, msg)
			return
		}

		http.Redirect(w, r, returnTo, http.StatusFound)
	}
}

func callbackError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrProviderNotFound):
		return http.StatusBadRequest, "unknown provider"
	case errors.Is(err, domain.ErrProviderDenied):
		return http.StatusForbidden, "sign-in was cancelled at the provider"
	case errors.Is(err, domain.ErrExpiredState):
		return http.StatusBadRequest, "state token expired"
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrMalformedState),
		errors.Is(err, domain.ErrStateMismatch),
		errors.Is(err, domain.ErrProviderMismatch):
		return http.StatusBadRequest, "invalid state token"
	case errors.Is(err, domain.ErrMissingAuthCode):
		return http.StatusBadRequest, "missing authorization code"
	case errors.Is(err, domain.ErrProviderExchange),
		errors.Is(err, domain.ErrProviderUserFetch):
		return http.StatusBadGateway, "provider exchange failed"
	default:
		return http.StatusInternalServerError, "failed to complete sign-in"
	}
}
