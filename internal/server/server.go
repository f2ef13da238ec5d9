package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/BlackMission/mockcalc/internal/auth"
	"github.com/BlackMission/mockcalc/internal/gate"
	"github.com/BlackMission/mockcalc/internal/handler"
)

// Config holds the server configuration.
type Config struct {
	Host string
	Port int
}

// Deps holds the service dependencies.
type Deps struct {
	Gate      *gate.Gate
	Providers *auth.Registry
	Assets    fs.FS
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
}

// New creates a new Server with all routes wired.
func New(cfg Config, deps Deps) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", handler.Page(deps.Assets))
	mux.Handle("GET /static/", handler.Static(deps.Assets))
	mux.HandleFunc("GET /health", handler.Health())
	mux.HandleFunc("GET /providers", handler.Providers(deps.Providers))

	mux.HandleFunc("GET /auth/signin/{provider}", handler.SignIn(deps.Gate))
	mux.HandleFunc("GET /auth/callback/{provider}", handler.Callback(deps.Gate))
	mux.HandleFunc("POST /auth/signout", handler.SignOut(deps.Gate))

	mux.HandleFunc("GET /api/session", handler.Session(deps.Gate))
	mux.HandleFunc("GET /api/calculator", handler.CalculatorState(deps.Gate))
	mux.HandleFunc("POST /api/calculator/keys", handler.CalculatorKey(deps.Gate))
	mux.HandleFunc("POST /api/calculator/buttons", handler.CalculatorButton(deps.Gate))

	logged := loggingMiddleware(mux)
	traced := otelhttp.NewHandler(logged, "mockcalc")

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		handler: traced,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      traced,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the server's HTTP handler (for testing).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening and serving.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	slog.Info("mockcalc listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.LogAttrs(r.Context(), levelFor(sw.status), "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", sw.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelInfo
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
