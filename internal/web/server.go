package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hpungsan/intentdesk/internal/console"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

const (
	// maxFormBytes bounds console form bodies.
	maxFormBytes = 64 << 10
	// sweepInterval is how often idle sessions are evicted.
	sweepInterval = time.Minute
)

// Options configures the console server.
type Options struct {
	Version    string
	Bind       string
	Port       int
	Location   *time.Location
	SessionTTL time.Duration
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewServer creates and configures the HTTP server for the console.
// Every session gets its own view over backend.
func NewServer(backend console.Backend, opts Options) (*http.Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to create template sub-FS: %w", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to create static sub-FS: %w", err)
	}

	sessions := console.NewSessions(opts.SessionTTL, func() *console.View {
		return console.NewView(backend, opts.Logger)
	})

	h := &Handlers{
		sessions: sessions,
		renderer: NewRenderer(templateSub, opts.Version, opts.Location, opts.Logger),
		logger:   opts.Logger,
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", opts.Bind, opts.Port),
		Handler: h.routes(staticSub, opts.Gatherer),
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sessions.Run(sweepCtx, sweepInterval)
	srv.RegisterOnShutdown(stopSweep)

	return srv, nil
}

func (h *Handlers) routes(static fs.FS, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/intents", http.StatusFound)
	})
	mux.HandleFunc("GET /intents", h.HandleList)
	mux.HandleFunc("POST /intents", h.HandleCreate)
	mux.HandleFunc("POST /intents/create/toggle", h.HandleToggleCreate)
	mux.HandleFunc("POST /intents/edit", h.HandleSubmitEdit)
	mux.HandleFunc("POST /intents/edit/cancel", h.HandleCancelEdit)
	mux.HandleFunc("POST /intents/{id}/edit", h.HandleBeginEdit)
	mux.HandleFunc("POST /intents/{id}/delete", h.HandleDelete)
	mux.HandleFunc("POST /intents/{id}/report", h.HandleToggleReport)
	mux.HandleFunc("POST /intents/{id}/jsonld", h.HandleToggleJSONLD)

	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	// Wrap with security headers
	return securityHeaders(mux)
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, name string, logger *slog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info(name+" running", "url", "http://"+srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
