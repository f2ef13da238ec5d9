package auth

import (
	"context"

	"github.com/BlackMission/mockcalc/internal/domain"
)

// Provider defines the interface for an OAuth2 sign-in provider.
type Provider interface {
	Name() string
	AuthURL(stateToken string) string
	Exchange(ctx context.Context, code string) (*domain.Profile, error)
}
