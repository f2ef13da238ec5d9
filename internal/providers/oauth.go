// Package providers holds the OAuth2 plumbing shared by the concrete
// sign-in providers.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/BlackMission/mockcalc/internal/domain"
)

// maxProfileBytes bounds provider profile responses.
const maxProfileBytes = 1 << 20

// Config holds the settings common to every OAuth2 provider.
type Config struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	CallbackURL  string // {base_url}/auth/callback/{provider}
}

// Flow runs the authorization-code grant against one provider.
type Flow struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

// NewFlow builds a flow for endpoint.
func NewFlow(cfg Config, endpoint oauth2.Endpoint) *Flow {
	return &Flow{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       cfg.Scopes,
		},
		httpClient: http.DefaultClient,
	}
}

// SetHTTPClient sets the client used for token and API calls.
func (f *Flow) SetHTTPClient(c *http.Client) {
	f.httpClient = c
}

// SetEndpoint overrides the provider endpoint (for testing).
func (f *Flow) SetEndpoint(e oauth2.Endpoint) {
	f.oauth.Endpoint = e
}

// AuthURL returns the provider consent page URL carrying stateToken.
func (f *Flow) AuthURL(stateToken string) string {
	return f.oauth.AuthCodeURL(stateToken)
}

// Client exchanges code for a token and returns an HTTP client that
// authenticates API calls with it.
func (f *Flow) Client(ctx context.Context, code string) (*http.Client, error) {
	if code == "" {
		return nil, domain.ErrMissingAuthCode
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)

	token, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderExchange, err)
	}
	return f.oauth.Client(ctx, token), nil
}

// GetJSON fetches url with client and decodes the JSON body into v.
func GetJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUserFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", domain.ErrProviderUserFetch, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", domain.ErrProviderUserFetch, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", domain.ErrProviderUserFetch, err)
	}
	return nil
}
