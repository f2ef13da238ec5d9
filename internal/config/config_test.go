package config

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/BlackMission/mockcalc/internal/domain"
)

// clearEnv unsets every variable LoadFromEnv reads so the host environment
// cannot leak into a test. t.Setenv restores the originals afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "HOST", "BASE_URL",
		"SESSION_SIGNING_KEY", "STATE_SIGNING_KEY", "SESSION_TTL", "COOKIE_SECURE",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_SCOPES",
		"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET", "GITHUB_SCOPES",
		"LOG_LEVEL", "LOG_FORMAT", "OTEL_ENDPOINT", "OTEL_SERVICE_NAME",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadFromEnv_FullConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("BASE_URL", "https://calc.example.com/")
	t.Setenv("SESSION_SIGNING_KEY", "session-key-1234567890123456")
	t.Setenv("STATE_SIGNING_KEY", "state-key-12345678901234567890")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("GOOGLE_CLIENT_ID", "google-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "google-secret")
	t.Setenv("GITHUB_CLIENT_ID", "github-id")
	t.Setenv("GITHUB_CLIENT_SECRET", "github-secret")
	t.Setenv("GITHUB_SCOPES", "read:user, user:email,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("OTEL_ENDPOINT", "http://collector:4318")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Server.BaseURL != "https://calc.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Server.BaseURL)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("expected session TTL 2h, got %s", cfg.Session.TTL)
	}
	if !cfg.Session.CookieSecure {
		t.Error("expected secure cookies for https base URL")
	}
	if len(cfg.Secrets.Generated) != 0 {
		t.Errorf("expected no generated keys, got %v", cfg.Secrets.Generated)
	}
	if cfg.Log.Level != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected json format, got %s", cfg.Log.Format)
	}
	if cfg.Telemetry.OTLPEndpoint != "http://collector:4318" {
		t.Errorf("unexpected OTLP endpoint: %s", cfg.Telemetry.OTLPEndpoint)
	}

	g := cfg.Providers["google"]
	if g.ClientID != "google-id" || g.ClientSecret != "google-secret" || g.Placeholder {
		t.Errorf("unexpected google config: %+v", g)
	}
	if g.CallbackURL != "https://calc.example.com/auth/callback/google" {
		t.Errorf("unexpected google callback: %s", g.CallbackURL)
	}

	gh := cfg.Providers["github"]
	if len(gh.Scopes) != 2 || gh.Scopes[0] != "read:user" || gh.Scopes[1] != "user:email" {
		t.Errorf("expected trimmed github scopes, got %v", gh.Scopes)
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.BaseURL != "http://localhost:8080" {
		t.Errorf("unexpected default base URL: %s", cfg.Server.BaseURL)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("expected default TTL 24h, got %s", cfg.Session.TTL)
	}
	if cfg.Session.CookieSecure {
		t.Error("expected insecure cookies for http base URL")
	}
	if cfg.Log.Level != slog.LevelInfo || cfg.Log.Format != "text" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		t.Errorf("expected tracing disabled by default, got %q", cfg.Telemetry.OTLPEndpoint)
	}
}

func TestLoadFromEnv_PlaceholderCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_CLIENT_ID", "real-id")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("missing credentials must not fail: %v", err)
	}

	g := cfg.Providers["google"]
	if !g.Placeholder || g.ClientID != PlaceholderGoogleClientID || g.ClientSecret != PlaceholderGoogleClientSecret {
		t.Errorf("expected google placeholders, got %+v", g)
	}

	gh := cfg.Providers["github"]
	if !gh.Placeholder || gh.ClientID != "real-id" || gh.ClientSecret != PlaceholderGitHubClientSecret {
		t.Errorf("expected github placeholder secret only, got %+v", gh)
	}
}

func TestLoadFromEnv_GeneratesMissingKeys(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Secrets.Generated) != 2 {
		t.Fatalf("expected 2 generated keys, got %v", cfg.Secrets.Generated)
	}
	if len(cfg.Secrets.SessionSigningKey) != 2*generatedKeyBytes {
		t.Errorf("unexpected generated key length %d", len(cfg.Secrets.SessionSigningKey))
	}
	if cfg.Secrets.SessionSigningKey == cfg.Secrets.StateSigningKey {
		t.Error("generated keys must differ")
	}
}

func TestLoadFromEnv_CookieSecureOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "https://calc.example.com")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Session.CookieSecure {
		t.Error("expected COOKIE_SECURE=false to win over https base URL")
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", "PORT", "abc"},
		{"port out of range", "PORT", "70000"},
		{"bad duration", "SESSION_TTL", "soon"},
		{"negative duration", "SESSION_TTL", "-1h"},
		{"relative base url", "BASE_URL", "calc.example.com"},
		{"bad log level", "LOG_LEVEL", "loud"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"short session key", "SESSION_SIGNING_KEY", "short"},
		{"short state key", "STATE_SIGNING_KEY", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFromEnv()
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
