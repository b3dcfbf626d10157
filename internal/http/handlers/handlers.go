package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/enrutador/dispatch-backend/internal/db"
	"github.com/enrutador/dispatch-backend/internal/models"
	"github.com/enrutador/dispatch-backend/internal/scheduling"
)

type Handler struct {
	Store     *db.Store
	Sched     *scheduling.Service
	Snapshots *scheduling.SnapshotCache
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type GapSearchRequest struct {
	PostalCode    string  `json:"postal_code" validate:"required"`
	DurationHours float64 `json:"duration_hours" validate:"required,gt=0"`
}

// @Summary Search schedule gaps
// @Description Rank feasible idle intervals near the requested postal code
// @Tags gaps
// @Accept json
// @Produce json
// @Param request body GapSearchRequest true "search parameters"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/gaps/search [post]
func (h *Handler) SearchGaps(c *gin.Context) {
	var req GapSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	snap, err := h.Snapshots.Get(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, "SNAPSHOT_UNAVAILABLE", "Schedule data unavailable", err.Error())
		return
	}

	location, err := snap.Geo.ResolveCoordinates(req.PostalCode)
	if err != nil {
		writeError(c, http.StatusNotFound, "ADDRESS_UNRESOLVED", "Postal code has no known coordinates", req.PostalCode)
		return
	}

	gaps, err := h.Sched.FindGaps(c.Request.Context(), snap, scheduling.TaskRequest{
		Location:      location,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		if errors.Is(err, scheduling.ErrInvalidRequest) {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Duration must be positive", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "SEARCH_ERROR", "Gap search failed", err.Error())
		return
	}
	if gaps == nil {
		gaps = []models.Gap{}
	}
	c.JSON(http.StatusOK, gin.H{"items": gaps, "count": len(gaps)})
}

type FreeDaySearchRequest struct {
	PostalCode string `json:"postal_code" validate:"required"`
}

// @Summary Search free days
// @Description Find technicians with fully free upcoming weekdays, closest first
// @Tags free-days
// @Accept json
// @Produce json
// @Param request body FreeDaySearchRequest true "search parameters"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/free-days/search [post]
func (h *Handler) SearchFreeDays(c *gin.Context) {
	var req FreeDaySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	snap, err := h.Snapshots.Get(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, "SNAPSHOT_UNAVAILABLE", "Schedule data unavailable", err.Error())
		return
	}

	location, err := snap.Geo.ResolveCoordinates(req.PostalCode)
	if err != nil {
		writeError(c, http.StatusNotFound, "ADDRESS_UNRESOLVED", "Postal code has no known coordinates", req.PostalCode)
		return
	}

	options, err := h.Sched.FindFreeDays(c.Request.Context(), snap, location)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "SEARCH_ERROR", "Free-day search failed", err.Error())
		return
	}
	if options == nil {
		options = []models.FreeDayOption{}
	}
	c.JSON(http.StatusOK, gin.H{"items": options, "count": len(options)})
}

func (h *Handler) TechniciansList(c *gin.Context) {
	items, err := h.Store.ListTechnicians(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list technicians", err.Error())
		return
	}
	if items == nil {
		items = []models.Technician{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Refresh snapshot
// @Tags snapshot
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/snapshot/refresh [post]
func (h *Handler) SnapshotRefresh(c *gin.Context) {
	snap, err := h.Snapshots.Force(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Snapshot reload failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"loaded_at":   snap.LoadedAt,
		"technicians": len(snap.Technicians),
		"visits":      len(snap.Visits),
	})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
