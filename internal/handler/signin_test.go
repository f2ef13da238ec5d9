package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/BlackMission/mockcalc/internal/domain"
	"github.com/BlackMission/mockcalc/internal/gate"
	"github.com/BlackMission/mockcalc/pkg/testutil"
)

func TestSignIn_RedirectsToProvider(t *testing.T) {
	env := newTestEnv(t)
	rr := testutil.DoRequest(t, env.mux, http.MethodGet, "/auth/signin/google", nil)

	testutil.AssertStatus(t, rr, http.StatusFound)
	loc := rr.Header().Get("Location")
	if !strings.HasPrefix(loc, env.provider.authURL+"?state=") {
		t.Errorf("unexpected Location %q", loc)
	}
	if !strings.Contains(testutil.CookieHeader(rr), gate.NonceCookie+"=") {
		t.Error("expected nonce cookie")
	}
}

func TestSignIn_UnknownProvider(t *testing.T) {
	env := newTestEnv(t)
	rr := testutil.DoRequest(t, env.mux, http.MethodGet, "/auth/signin/myspace", nil)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestSession_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)
	rr := testutil.DoRequest(t, env.mux, http.MethodGet, "/api/session", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body map[string]string
	testutil.ParseJSON(t, rr, &body)
	if body["status"] != "unauthenticated" {
		t.Errorf("expected unauthenticated, got %q", body["status"])
	}
	if _, ok := body["label"]; ok {
		t.Errorf("expected no label, got %q", body["label"])
	}
}

func TestSession_Authenticated(t *testing.T) {
	env := newTestEnv(t)
	headers := env.signIn(t)

	rr := testutil.DoRequest(t, env.mux, http.MethodGet, "/api/session", headers)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body map[string]string
	testutil.ParseJSON(t, rr, &body)
	if body["status"] != domain.StatusAuthenticated.String() {
		t.Errorf("expected authenticated, got %q", body["status"])
	}
	// No display name, so the email is the label.
	if body["label"] != "grace@example.com" {
		t.Errorf("expected label 'grace@example.com', got %q", body["label"])
	}
	if body["provider"] != "google" {
		t.Errorf("expected provider 'google', got %q", body["provider"])
	}
}

func TestSignOut(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   int
	}{
		{"form post", "text/html", http.StatusFound},
		{"fetch", "application/json", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			headers := env.signIn(t)
			headers["Accept"] = tt.accept

			rr := testutil.DoRequest(t, env.mux, http.MethodPost, "/auth/signout", headers)
			testutil.AssertStatus(t, rr, tt.want)
			if tt.want == http.StatusFound && rr.Header().Get("Location") != "/" {
				t.Errorf("expected redirect to /, got %q", rr.Header().Get("Location"))
			}

			// The cleared cookie no longer authenticates.
			after := testutil.DoRequest(t, env.mux, http.MethodGet, "/api/calculator",
				map[string]string{"Cookie": testutil.CookieHeader(rr)})
			testutil.AssertStatus(t, after, http.StatusUnauthorized)
		})
	}
}
