// Package gate decides whether a request belongs to a signed-in user and
// drives the sign-in and sign-out transitions.
package gate

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/BlackMission/mockcalc/internal/auth"
	"github.com/BlackMission/mockcalc/internal/calculator"
	"github.com/BlackMission/mockcalc/internal/domain"
	"github.com/BlackMission/mockcalc/internal/session"
	"github.com/BlackMission/mockcalc/internal/state"
)

var tracer = otel.Tracer("github.com/BlackMission/mockcalc/internal/gate")

// NonceCookie binds an in-flight sign-in to the browser that started it.
const NonceCookie = "mockcalc_oauth_nonce"

// Deps holds the collaborators of a Gate.
type Deps struct {
	Providers *auth.Registry
	State     *state.Service
	Sessions  *session.Manager
	Store     *calculator.Store
	Secure    bool
}

// Gate is the session gate.
type Gate struct {
	providers *auth.Registry
	states    *state.Service
	sessions  *session.Manager
	store     *calculator.Store
	secure    bool
}

// New creates a Gate.
func New(deps Deps) *Gate {
	return &Gate{
		providers: deps.Providers,
		states:    deps.State,
		sessions:  deps.Sessions,
		store:     deps.Store,
		secure:    deps.Secure,
	}
}

// View is the gate's answer for one request.
type View struct {
	Status  domain.SessionStatus
	Session *domain.Session
}

// Label returns the display label of the signed-in user, or "".
func (v View) Label() string {
	if v.Session == nil {
		return ""
	}
	return v.Session.Profile.Label()
}

// Status reports whether r carries a valid session. A request is never
// left loading; the server answers authenticated or unauthenticated.
func (g *Gate) Status(r *http.Request) View {
	sess, err := g.sessions.Read(r)
	if err != nil {
		if !errors.Is(err, domain.ErrNoSession) {
			slog.Debug("rejected session cookie", "error", err)
		}
		return View{Status: domain.StatusUnauthenticated}
	}
	return View{Status: domain.StatusAuthenticated, Session: sess}
}

// Calculator returns the calculator machine of the signed-in user, resolved
// as authenticated.
func (g *Gate) Calculator(r *http.Request) (*calculator.Machine, error) {
	v := g.Status(r)
	if v.Status != domain.StatusAuthenticated {
		return nil, domain.ErrNotAuthenticated
	}
	m := g.store.Get(v.Session.ID)
	m.Resolve(domain.StatusAuthenticated)
	return m, nil
}

// BeginSignIn starts the redirect flow for providerName and returns the
// provider URL the browser should be sent to.
func (g *Gate) BeginSignIn(w http.ResponseWriter, r *http.Request, providerName string) (string, error) {
	provider, err := g.providers.Get(providerName)
	if err != nil {
		return "", err
	}

	token, nonce, err := g.states.Generate(domain.StatePayload{
		Provider: providerName,
		ReturnTo: safeReturnTo(r.URL.Query().Get("return_to")),
	})
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     NonceCookie,
		Value:    nonce,
		Path:     "/auth",
		MaxAge:   int(g.states.Expiry().Seconds()),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return provider.AuthURL(token), nil
}

// Complete finishes the redirect flow for providerName: it checks the state
// parameter against the nonce cookie, exchanges the code, and issues a
// session. It returns the path to send the browser to.
func (g *Gate) Complete(w http.ResponseWriter, r *http.Request, providerName string) (returnTo string, err error) {
	ctx, span := tracer.Start(r.Context(), "gate.Complete")
	span.SetAttributes(attribute.String("auth.provider", providerName))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sign-in failed")
		}
		span.End()
	}()

	q := r.URL.Query()
	g.clearNonce(w)

	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("%w: %s", domain.ErrProviderDenied, e)
	}

	provider, err := g.providers.Get(providerName)
	if err != nil {
		return "", err
	}

	token := q.Get("state")
	if token == "" {
		return "", fmt.Errorf("%w: missing state parameter", domain.ErrMalformedState)
	}
	var nonce string
	if c, err := r.Cookie(NonceCookie); err == nil {
		nonce = c.Value
	}
	payload, err := g.states.Validate(token, nonce)
	if err != nil {
		return "", err
	}
	if payload.Provider != providerName {
		return "", fmt.Errorf("%w: issued for %q, used for %q", domain.ErrProviderMismatch, payload.Provider, providerName)
	}

	profile, err := provider.Exchange(ctx, q.Get("code"))
	if err != nil {
		return "", err
	}

	sess, err := g.sessions.Issue(w, *profile)
	if err != nil {
		return "", err
	}
	slog.Info("user signed in", "provider", profile.Provider, "email", profile.Email, "session", sess.ID)

	return safeReturnTo(payload.ReturnTo), nil
}

// EndSession clears the session cookie and discards the calculator state
// of the session, if any.
func (g *Gate) EndSession(w http.ResponseWriter, r *http.Request) {
	if sess, err := g.sessions.Read(r); err == nil {
		g.store.Remove(sess.ID)
		slog.Info("user signed out", "email", sess.Profile.Email, "session", sess.ID)
	}
	g.sessions.Clear(w)
}

func (g *Gate) clearNonce(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     NonceCookie,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// safeReturnTo limits post sign-in redirects to local paths.
func safeReturnTo(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}
