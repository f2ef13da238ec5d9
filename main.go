package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/BlackMission/mockcalc/internal/auth"
	"github.com/BlackMission/mockcalc/internal/calculator"
	"github.com/BlackMission/mockcalc/internal/config"
	"github.com/BlackMission/mockcalc/internal/gate"
	"github.com/BlackMission/mockcalc/internal/providers"
	"github.com/BlackMission/mockcalc/internal/providers/github"
	"github.com/BlackMission/mockcalc/internal/providers/google"
	"github.com/BlackMission/mockcalc/internal/server"
	"github.com/BlackMission/mockcalc/internal/session"
	"github.com/BlackMission/mockcalc/internal/state"
	"github.com/BlackMission/mockcalc/internal/telemetry"
	"github.com/BlackMission/mockcalc/internal/web"
)

// sweepInterval is how often idle calculators are dropped.
const sweepInterval = 5 * time.Minute

// oauthProvider is what main needs from a concrete provider.
type oauthProvider interface {
	auth.Provider
	SetHTTPClient(*http.Client)
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(os.Stderr, cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	for _, name := range cfg.Secrets.Generated {
		slog.Warn("signing key not configured, using a random key for this process", "key", name)
	}

	// Build provider registry
	registry := auth.NewRegistry()
	outbound := &http.Client{
		Timeout:   15 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	for _, p := range []struct {
		name  string
		build func(providers.Config) oauthProvider
	}{
		{"google", func(c providers.Config) oauthProvider { return google.New(c) }},
		{"github", func(c providers.Config) oauthProvider { return github.New(c) }},
	} {
		pc := cfg.Providers[p.name]
		if pc.Placeholder {
			slog.Warn("provider credentials not configured, sign-in will fail at the provider", "provider", p.name)
		}
		prov := p.build(providers.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			Scopes:       pc.Scopes,
			CallbackURL:  pc.CallbackURL,
		})
		prov.SetHTTPClient(outbound)
		if err := registry.Register(prov); err != nil {
			slog.Error("failed to register provider", "provider", p.name, "error", err)
			os.Exit(1)
		}
		slog.Info("registered provider", "provider", p.name, "callback", pc.CallbackURL)
	}

	store := calculator.NewStore(calculator.RealScheduler{}, cfg.Session.TTL)
	go store.Run(ctx, sweepInterval)

	g := gate.New(gate.Deps{
		Providers: registry,
		State:     state.NewService([]byte(cfg.Secrets.StateSigningKey)),
		Sessions: session.NewManager(session.Config{
			Key:    []byte(cfg.Secrets.SessionSigningKey),
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.CookieSecure,
		}),
		Store:  store,
		Secure: cfg.Session.CookieSecure,
	})

	// Build and start server
	srv := server.New(server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, server.Deps{
		Gate:      g,
		Providers: registry,
		Assets:    web.Static(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
