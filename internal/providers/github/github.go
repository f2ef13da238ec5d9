package github

import (
	"context"
	"net/http"
	"strconv"

	"golang.org/x/oauth2/endpoints"

	"github.com/BlackMission/mockcalc/internal/domain"
	"github.com/BlackMission/mockcalc/internal/providers"
)

const (
	providerName  = "github"
	defaultAPIURL = "https://api.github.com"
)

var defaultScopes = []string{"read:user", "user:email"}

// Provider implements OAuth2 sign-in with GitHub.
type Provider struct {
	*providers.Flow
	apiURL string
}

// New creates a GitHub provider. Empty scopes default to read:user and
// user:email.
func New(cfg providers.Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = defaultScopes
	}
	return &Provider{
		Flow:   providers.NewFlow(cfg, endpoints.GitHub),
		apiURL: defaultAPIURL,
	}
}

// SetAPIURL overrides the REST API base URL (for testing).
func (p *Provider) SetAPIURL(u string) {
	p.apiURL = u
}

func (p *Provider) Name() string { return providerName }

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *Provider) Exchange(ctx context.Context, code string) (*domain.Profile, error) {
	client, err := p.Client(ctx, code)
	if err != nil {
		return nil, err
	}

	var u githubUser
	if err := providers.GetJSON(ctx, client, p.apiURL+"/user", &u); err != nil {
		return nil, err
	}

	email := u.Email
	if email == "" {
		// Private addresses are omitted from /user but listed here.
		email = p.primaryEmail(ctx, client)
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}

	return &domain.Profile{
		Provider:   providerName,
		ProviderID: strconv.FormatInt(u.ID, 10),
		Name:       name,
		Email:      email,
	}, nil
}

// primaryEmail returns the primary verified address, or "" when the token
// cannot list addresses.
func (p *Provider) primaryEmail(ctx context.Context, client *http.Client) string {
	var emails []githubEmail
	if err := providers.GetJSON(ctx, client, p.apiURL+"/user/emails", &emails); err != nil {
		return ""
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}
