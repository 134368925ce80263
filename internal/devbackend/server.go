// Package devbackend serves the intent REST surface from SQLite so the
// console can run without the production service.
package devbackend

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes bounds request bodies accepted by the dev backend.
const maxBodyBytes = 1 << 20

// Handlers holds the dependencies of the REST handlers.
type Handlers struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRouter builds the chi router for the REST surface under /intent.
func NewRouter(db *sql.DB, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{db: db, logger: logger}

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", h.Health)

	r.Route("/intent", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/", h.Update)
			r.Delete("/", h.Delete)
			r.Get("/intentReport", h.Report)
			r.Post("/intentReport", h.AppendReport)
			r.Get("/json-ld", h.JSONLD)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, &apiError{Code: "NOT_FOUND", Status: http.StatusNotFound, Message: "no such route"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, &apiError{Code: "METHOD_NOT_ALLOWED", Status: http.StatusMethodNotAllowed, Message: "method not allowed"})
	})

	return r
}

// NewServer creates the HTTP server for the dev backend.
func NewServer(db *sql.DB, logger *slog.Logger, bind string, port int) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: NewRouter(db, logger),
	}
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", chiMiddleware.GetReqID(r.Context()),
			)
		})
	}
}
