package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/NoteSync/internal/middleware"
	"github.com/atinyakov/NoteSync/internal/models"
)

// DashboardService aggregates every accessible resource across kinds.
type DashboardService interface {
	ListAll(ctx context.Context, p models.Principal) ([]models.Resource, error)
}

// DashboardHandler handles GET /api/all.
type DashboardHandler struct {
	Service DashboardService
}

// ListAll returns every note and todo the caller owns or has access to,
// newest first.
func (h *DashboardHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipalFromContext(r.Context())
	resources, err := h.Service.ListAll(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if resources == nil {
		resources = []models.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}
