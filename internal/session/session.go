// Package session carries the signed-in identity between requests in a
// signed cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BlackMission/mockcalc/internal/domain"
)

const (
	// CookieName is the session cookie.
	CookieName = "mockcalc_session"
	issuer     = "mockcalc"
)

// Config holds session settings.
type Config struct {
	Key    []byte
	TTL    time.Duration
	Secure bool
}

// Manager issues and reads session cookies.
type Manager struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Provider string `json:"provider"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		key:    cfg.Key,
		ttl:    cfg.TTL,
		secure: cfg.Secure,
		now:    time.Now,
	}
}

// SetNow overrides the time function (for testing).
func (m *Manager) SetNow(fn func() time.Time) {
	m.now = fn
}

// Issue starts a session for profile and writes its cookie.
func (m *Manager) Issue(w http.ResponseWriter, profile domain.Profile) (*domain.Session, error) {
	now := m.now()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		Profile:   profile,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    issuer,
			Subject:   profile.Provider + ":" + profile.ProviderID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Provider: profile.Provider,
		Name:     profile.Name,
		Email:    profile.Email,
	})
	signed, err := token.SignedString(m.key)
	if err != nil {
		return nil, fmt.Errorf("signing session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Read returns the session carried by r.
func (m *Manager) Read(r *http.Request) (*domain.Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, domain.ErrNoSession
	}

	var cl claims
	_, err = jwt.ParseWithClaims(c.Value, &cl, func(*jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidSession, err)
	}
	if cl.ID == "" {
		return nil, fmt.Errorf("%w: missing session id", domain.ErrInvalidSession)
	}

	_, providerID, _ := strings.Cut(cl.Subject, ":")
	return &domain.Session{
		ID: cl.ID,
		Profile: domain.Profile{
			Provider:   cl.Provider,
			ProviderID: providerID,
			Name:       cl.Name,
			Email:      cl.Email,
		},
		ExpiresAt: cl.ExpiresAt.Time,
	}, nil
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
