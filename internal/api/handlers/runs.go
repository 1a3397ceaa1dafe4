package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"prosumer-sim/internal/api/models"
	"prosumer-sim/internal/simulation"
)

// RunsHandler serves runs saved to the database.
type RunsHandler struct {
	store *simulation.Store
}

func NewRunsHandler(store *simulation.Store) *RunsHandler {
	return &RunsHandler{store: store}
}

func (h *RunsHandler) enabled(c *gin.Context) bool {
	if h.store == nil {
		respondError(c, http.StatusServiceUnavailable, "STORE_DISABLED", "no database configured")
		return false
	}
	return true
}

// ListRuns handles GET /api/v1/runs
func (h *RunsHandler) ListRuns(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a non-negative integer")
		return
	}
	rows, err := h.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	runs := make([]models.StoredRun, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, models.StoredRun{ID: r.ID, CreatedAt: r.CreatedAt, Summary: r.Summary()})
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunsHandler) GetRun(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	row, hist, err := h.store.LoadRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "RUN_NOT_FOUND", err.Error())
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, models.StoredRunResponse{
		StoredRun: models.StoredRun{ID: row.ID, CreatedAt: row.CreatedAt, Summary: row.Summary()},
		History: models.HistoryResponse{
			Meta:  hist.Meta(),
			Ticks: hist.Ticks(),
			Steps: hist.Steps(),
		},
	})
}

// DeleteRun handles DELETE /api/v1/runs/:id
func (h *RunsHandler) DeleteRun(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	err := h.store.DeleteRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusNotFound, "RUN_NOT_FOUND", err.Error())
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "STORE_ERROR", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
