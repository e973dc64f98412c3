package api

import (
	"net/http"
	"strconv"

	"github.com/Nikonell/krakker-backend/internal/models"
	"github.com/Nikonell/krakker-backend/internal/store"
	"github.com/Nikonell/krakker-backend/internal/worker"
)

type SyncHandler struct {
	worker *worker.Worker
	runs   *store.SyncRunStore
}

func NewSyncHandler(w *worker.Worker, runs *store.SyncRunStore) *SyncHandler {
	return &SyncHandler{worker: w, runs: runs}
}

// Status handles GET /sync/status
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := models.SyncStatusResponse{
		State:   h.worker.State(),
		LastRun: h.worker.LastRun(),
	}

	// Fall back to history so status survives a restart.
	if resp.LastRun == nil && h.runs != nil {
		last, err := h.runs.Latest(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.LastRun = last
	}

	writeJSON(w, http.StatusOK, resp)
}

// Runs handles GET /sync/runs
func (h *SyncHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs": runs,
	})
}

// Trigger handles POST /sync
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	h.worker.Trigger()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"state": h.worker.State(),
	})
}
