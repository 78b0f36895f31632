package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jigintern/2025-summer-c/internal/handlers"
	"github.com/jigintern/2025-summer-c/internal/metrics"
	"github.com/jigintern/2025-summer-c/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Submissions service.SubmissionService
	Queries     service.QueryService
	Threads     service.ThreadService

	// Store and Records back the health check. Search may be nil when no
	// search index is configured.
	Store   handlers.Pinger
	Records handlers.RecordCounter
	Search  handlers.CollectionChecker

	IndexHTML string // Embedded HTML content
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(Metrics)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	items := handlers.NewItemsHandler(deps.Submissions)
	query := handlers.NewQueryHandler(deps.Queries)
	comments := handlers.NewCommentsHandler(deps.Threads)
	note := handlers.NewNoteHandler(deps.Submissions)

	health := handlers.NewHealthHandler(deps.Store, deps.Records, deps.Search)

	// Endpoints used by the map client.
	r.Post("/post-json", items.Create)
	r.Get("/get-json", items.List)
	r.Method(http.MethodGet, "/query-json", query)
	r.Get("/get-comments", comments.List)
	r.Post("/post-comments", comments.Add)

	r.Route("/api", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", items.List)
			r.Post("/", items.Create)
			r.Get("/{id}", items.Get)
			r.Get("/{id}/comments", comments.List)
			r.Post("/{id}/comments", comments.Add)
		})
		r.Method(http.MethodGet, "/query", query)
		r.Method(http.MethodGet, "/health", health)
	})

	r.Method(http.MethodGet, "/items/{id}", note)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Serve HTML page at root
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(deps.IndexHTML))
	})

	return r
}
