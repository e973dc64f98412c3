package api

import (
	"net/http"

	"github.com/Nikonell/krakker-backend/internal/models"
	"github.com/Nikonell/krakker-backend/internal/store"
	"github.com/Nikonell/krakker-backend/internal/worker"
)

type HealthHandler struct {
	db     *store.DB
	worker *worker.Worker
}

func NewHealthHandler(db *store.DB, w *worker.Worker) *HealthHandler {
	return &HealthHandler{db: db, worker: w}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status: "ok",
	}

	// Check DB
	projects, tasks, err := h.db.Counts(r.Context())
	if err != nil {
		resp.DB = models.ServiceCheck{Status: "error", Message: err.Error()}
		resp.Status = "degraded"
	} else {
		resp.DB = models.ServiceCheck{Status: "ok"}
		resp.ProjectCount = projects
		resp.TaskCount = tasks
	}

	// Worker state is informational; a disabled or stopped worker does not
	// degrade the API.
	if h.worker == nil {
		resp.Worker = models.ServiceCheck{Status: "disabled"}
	} else {
		resp.Worker = models.ServiceCheck{Status: string(h.worker.State())}
		if last := h.worker.LastRun(); last != nil && last.Error != "" {
			resp.Worker.Message = last.Error
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
