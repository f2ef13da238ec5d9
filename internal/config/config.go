package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/BlackMission/mockcalc/internal/domain"
)

// Placeholder credentials used when a provider is not configured. The
// provider is still registered; sign-in fails at the provider instead of
// the server refusing to start.
const (
	PlaceholderGoogleClientID     = "YOUR_GOOGLE_CLIENT_ID"
	PlaceholderGoogleClientSecret = "YOUR_GOOGLE_CLIENT_SECRET"
	PlaceholderGitHubClientID     = "YOUR_GITHUB_CLIENT_ID"
	PlaceholderGitHubClientSecret = "YOUR_GITHUB_CLIENT_SECRET"
)

const generatedKeyBytes = 32

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig
	Secrets   SecretsConfig
	Session   SessionConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	Providers map[string]ProviderConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int
	Host    string
	BaseURL string
}

// SecretsConfig holds signing keys.
type SecretsConfig struct {
	SessionSigningKey string
	StateSigningKey   string
	// Generated lists the keys that were not configured and were
	// generated for this process only.
	Generated []string
}

// SessionConfig holds session cookie settings.
type SessionConfig struct {
	TTL          time.Duration
	CookieSecure bool
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  slog.Level
	Format string
}

// TelemetryConfig holds tracing settings. An empty endpoint disables tracing.
type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// ProviderConfig holds provider-specific settings.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	CallbackURL  string
	Placeholder  bool
}

type rawEnv struct {
	Port    int    `env:"PORT"     envDefault:"8080"`
	Host    string `env:"HOST"     envDefault:"0.0.0.0"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	SessionSigningKey string        `env:"SESSION_SIGNING_KEY"`
	StateSigningKey   string        `env:"STATE_SIGNING_KEY"`
	SessionTTL        time.Duration `env:"SESSION_TTL"   envDefault:"24h"`
	CookieSecure      *bool         `env:"COOKIE_SECURE"`

	GoogleClientID     string   `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string   `env:"GOOGLE_CLIENT_SECRET"`
	GoogleScopes       []string `env:"GOOGLE_SCOPES" envSeparator:","`
	GitHubClientID     string   `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string   `env:"GITHUB_CLIENT_SECRET"`
	GitHubScopes       []string `env:"GITHUB_SCOPES" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	OTLPEndpoint string `env:"OTEL_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"mockcalc"`
}

// LoadFromEnv reads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	var raw rawEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	baseURL := strings.TrimRight(raw.BaseURL, "/")
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: BASE_URL must be an absolute URL, got %q", domain.ErrInvalidConfig, raw.BaseURL)
	}

	level, err := parseLevel(raw.LogLevel)
	if err != nil {
		return nil, err
	}

	secure := u.Scheme == "https"
	if raw.CookieSecure != nil {
		secure = *raw.CookieSecure
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:    raw.Port,
			Host:    raw.Host,
			BaseURL: baseURL,
		},
		Session: SessionConfig{
			TTL:          raw.SessionTTL,
			CookieSecure: secure,
		},
		Log: LogConfig{
			Level:  level,
			Format: strings.ToLower(strings.TrimSpace(raw.LogFormat)),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: strings.TrimSpace(raw.OTLPEndpoint),
			ServiceName:  raw.ServiceName,
		},
		Providers: buildProviders(raw, baseURL),
	}

	if err := cfg.fillSecrets(raw); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildProviders(raw rawEnv, baseURL string) map[string]ProviderConfig {
	google := ProviderConfig{
		ClientID:     raw.GoogleClientID,
		ClientSecret: raw.GoogleClientSecret,
		Scopes:       trimCSV(raw.GoogleScopes),
		CallbackURL:  baseURL + "/auth/callback/google",
	}
	if google.ClientID == "" || google.ClientSecret == "" {
		google.ClientID = firstNonEmpty(google.ClientID, PlaceholderGoogleClientID)
		google.ClientSecret = firstNonEmpty(google.ClientSecret, PlaceholderGoogleClientSecret)
		google.Placeholder = true
	}

	github := ProviderConfig{
		ClientID:     raw.GitHubClientID,
		ClientSecret: raw.GitHubClientSecret,
		Scopes:       trimCSV(raw.GitHubScopes),
		CallbackURL:  baseURL + "/auth/callback/github",
	}
	if github.ClientID == "" || github.ClientSecret == "" {
		github.ClientID = firstNonEmpty(github.ClientID, PlaceholderGitHubClientID)
		github.ClientSecret = firstNonEmpty(github.ClientSecret, PlaceholderGitHubClientSecret)
		github.Placeholder = true
	}

	return map[string]ProviderConfig{
		"google": google,
		"github": github,
	}
}

// fillSecrets copies configured keys and generates the missing ones.
func (c *Config) fillSecrets(raw rawEnv) error {
	c.Secrets.SessionSigningKey = raw.SessionSigningKey
	c.Secrets.StateSigningKey = raw.StateSigningKey

	if c.Secrets.SessionSigningKey == "" {
		key, err := randomKey()
		if err != nil {
			return err
		}
		c.Secrets.SessionSigningKey = key
		c.Secrets.Generated = append(c.Secrets.Generated, "SESSION_SIGNING_KEY")
	}
	if c.Secrets.StateSigningKey == "" {
		key, err := randomKey()
		if err != nil {
			return err
		}
		c.Secrets.StateSigningKey = key
		c.Secrets.Generated = append(c.Secrets.Generated, "STATE_SIGNING_KEY")
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("%w: PORT out of range: %d", domain.ErrInvalidConfig, cfg.Server.Port)
	}
	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("%w: SESSION_TTL must be positive", domain.ErrInvalidConfig)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: LOG_FORMAT must be text or json, got %q", domain.ErrInvalidConfig, cfg.Log.Format)
	}
	if len(cfg.Secrets.SessionSigningKey) < 16 {
		return fmt.Errorf("%w: SESSION_SIGNING_KEY must be at least 16 bytes", domain.ErrInvalidConfig)
	}
	if len(cfg.Secrets.StateSigningKey) < 16 {
		return fmt.Errorf("%w: STATE_SIGNING_KEY must be at least 16 bytes", domain.ErrInvalidConfig)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: LOG_LEVEL: %v", domain.ErrInvalidConfig, err)
	}
	return level, nil
}

func randomKey() (string, error) {
	b := make([]byte, generatedKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(domain.ErrMissingConfig, fmt.Errorf("generating key: %w", err))
	}
	return fmt.Sprintf("%x", b), nil
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
