package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/Nikonell/krakker-backend/internal/store"
	"github.com/Nikonell/krakker-backend/internal/worker"
)

// NewRouter creates the Chi router with all routes and middleware. syncWorker
// may be nil when the reconciliation worker is disabled.
func NewRouter(
	db *store.DB,
	projectStore *store.ProjectStore,
	taskStore *store.TaskStore,
	runStore *store.SyncRunStore,
	syncWorker *worker.Worker,
	apiKey string,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	// Handlers
	healthH := NewHealthHandler(db, syncWorker)
	projectH := NewProjectHandler(projectStore)
	taskH := NewTaskHandler(taskStore)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectH.List)
			r.Post("/", projectH.Create)
			r.Get("/{id}", projectH.Get)
			r.Put("/{id}/repository", projectH.BindRepository)
			r.Get("/{id}/tasks", taskH.List)
			r.Post("/{id}/tasks", taskH.Create)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Patch("/{id}", taskH.Update)
			r.Delete("/{id}", taskH.Delete)
		})

		if syncWorker != nil {
			syncH := NewSyncHandler(syncWorker, runStore)
			r.Route("/sync", func(r chi.Router) {
				r.Post("/", syncH.Trigger)
				r.Get("/status", syncH.Status)
				r.Get("/runs", syncH.Runs)
			})
		}
	})

	return r
}
