package google

import (
	"context"

	"golang.org/x/oauth2/endpoints"

	"github.com/BlackMission/mockcalc/internal/domain"
	"github.com/BlackMission/mockcalc/internal/providers"
)

const (
	providerName       = "google"
	defaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

var defaultScopes = []string{"openid", "email", "profile"}

// Provider implements OAuth2 sign-in with Google.
type Provider struct {
	*providers.Flow
	userInfoURL string
}

// New creates a Google provider. Empty scopes default to openid, email,
// and profile.
func New(cfg providers.Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = defaultScopes
	}
	return &Provider{
		Flow:        providers.NewFlow(cfg, endpoints.Google),
		userInfoURL: defaultUserInfoURL,
	}
}

// SetUserInfoURL overrides the userinfo endpoint (for testing).
func (p *Provider) SetUserInfoURL(u string) {
	p.userInfoURL = u
}

func (p *Provider) Name() string { return providerName }

type userInfo struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p *Provider) Exchange(ctx context.Context, code string) (*domain.Profile, error) {
	client, err := p.Client(ctx, code)
	if err != nil {
		return nil, err
	}

	var info userInfo
	if err := providers.GetJSON(ctx, client, p.userInfoURL, &info); err != nil {
		return nil, err
	}

	return &domain.Profile{
		Provider:   providerName,
		ProviderID: info.Sub,
		Name:       info.Name,
		Email:      info.Email,
	}, nil
}
