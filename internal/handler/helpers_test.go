package handler

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/BlackMission/mockcalc/internal/auth"
	"github.com/BlackMission/mockcalc/internal/calculator"
	"github.com/BlackMission/mockcalc/internal/domain"
	"github.com/BlackMission/mockcalc/internal/gate"
	"github.com/BlackMission/mockcalc/internal/session"
	"github.com/BlackMission/mockcalc/internal/state"
	"github.com/BlackMission/mockcalc/pkg/testutil"
)

type stubProvider struct {
	name    string
	authURL string
	profile *domain.Profile
	err     error
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) AuthURL(stateToken string) string {
	return s.authURL + "?state=" + url.QueryEscape(stateToken)
}
func (s *stubProvider) Exchange(ctx context.Context, code string) (*domain.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	if code == "" {
		return nil, domain.ErrMissingAuthCode
	}
	return s.profile, nil
}

type testEnv struct {
	mux      *http.ServeMux
	provider *stubProvider
	states   *state.Service
	store    *calculator.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	provider := &stubProvider{
		name:    "google",
		authURL: "https://accounts.example.com/o/oauth2/auth",
		profile: &domain.Profile{Provider: "google", ProviderID: "42", Email: "grace@example.com"},
	}
	providers := auth.NewRegistry()
	if err := providers.Register(provider); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	states := state.NewService([]byte("test-key-1234567890abcdef"))
	store := calculator.NewStore(nil, time.Hour)
	g := gate.New(gate.Deps{
		Providers: providers,
		State:     states,
		Sessions:  session.NewManager(session.Config{Key: []byte("session-key-1234567890abcdef"), TTL: time.Hour}),
		Store:     store,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/signin/{provider}", SignIn(g))
	mux.HandleFunc("GET /auth/callback/{provider}", Callback(g))
	mux.HandleFunc("POST /auth/signout", SignOut(g))
	mux.HandleFunc("GET /api/session", Session(g))
	mux.HandleFunc("GET /api/calculator", CalculatorState(g))
	mux.HandleFunc("POST /api/calculator/keys", CalculatorKey(g))
	mux.HandleFunc("POST /api/calculator/buttons", CalculatorButton(g))
	return &testEnv{mux: mux, provider: provider, states: states, store: store}
}

// beginSignIn returns the state token and the nonce cookie header.
func (e *testEnv) beginSignIn(t *testing.T) (string, string) {
	t.Helper()
	rr := testutil.DoRequest(t, e.mux, http.MethodGet, "/auth/signin/google", nil)
	testutil.AssertStatus(t, rr, http.StatusFound)
	loc, err := url.Parse(rr.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	return loc.Query().Get("state"), testutil.CookieHeader(rr)
}

// signIn completes a sign-in and returns the session cookie header.
func (e *testEnv) signIn(t *testing.T) map[string]string {
	t.Helper()
	token, cookie := e.beginSignIn(t)
	rr := testutil.DoRequest(t, e.mux, http.MethodGet,
		"/auth/callback/google?code=auth-code&state="+url.QueryEscape(token),
		map[string]string{"Cookie": cookie})
	testutil.AssertStatus(t, rr, http.StatusFound)
	return map[string]string{"Cookie": testutil.CookieHeader(rr)}
}
