// Package http provides the HTTP and websocket surface of the service.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/NoteSync/internal/middleware"
	"github.com/atinyakov/NoteSync/internal/models"
	"github.com/atinyakov/NoteSync/internal/service"
	"github.com/atinyakov/NoteSync/internal/share"
)

// ResourceAPI defines the resource use cases required by the handler.
// Implemented by service.ResourceService for each kind.
type ResourceAPI interface {
	Kind() models.ResourceKind
	ListOwned(ctx context.Context, p models.Principal) ([]models.Resource, error)
	ListShared(ctx context.Context, p models.Principal) ([]models.Resource, error)
	ListAll(ctx context.Context, p models.Principal) ([]models.Resource, error)
	GetByID(ctx context.Context, id string, p models.Principal) (*models.Resource, models.AccessLevel, error)
	Create(ctx context.Context, p models.Principal, title, description string, items []models.TodoItem) (*models.Resource, error)
	Update(ctx context.Context, id string, p models.Principal, patch models.Patch) (*models.Resource, error)
	Delete(ctx context.Context, id string, p models.Principal) error
	Share(ctx context.Context, id string, caller models.Principal, email string, level models.AccessLevel) (*models.Resource, error)
	UpdateSharedAccess(ctx context.Context, id string, caller models.Principal, entryID string, level models.AccessLevel) (*models.Resource, error)
	RevokeShare(ctx context.Context, id string, caller, target models.Principal) (*models.Resource, error)
}

// ResourceHandler serves one resource kind's routes. Notes and todos mount
// two instances of it.
type ResourceHandler struct {
	Service ResourceAPI
}

// Routes returns the per-kind route tree, mounted under /api/notes and
// /api/todos.
func (h *ResourceHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListOwned)
	r.Post("/", h.Create)
	r.Get("/all", h.ListAll)
	r.Get("/shared", h.ListShared)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/share", h.Share)
	r.Put("/{id}/shared/{entryID}", h.UpdateSharedAccess)
	r.Delete("/{id}/{userID}/share", h.RevokeShare)
	return r
}

// ListOwned handles GET / and returns the caller's own resources.
func (h *ResourceHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListOwned)
}

// ListShared handles GET /shared and returns resources shared with the caller.
func (h *ResourceHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListShared)
}

// ListAll handles GET /all and returns owned plus shared resources.
func (h *ResourceHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListAll)
}

func (h *ResourceHandler) list(w http.ResponseWriter, r *http.Request, fn func(context.Context, models.Principal) ([]models.Resource, error)) {
	caller := middleware.GetPrincipalFromContext(r.Context())
	resources, err := fn(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if resources == nil {
		resources = []models.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}

// GetByID handles GET /{id}, returning the resource and the caller's level.
func (h *ResourceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipalFromContext(r.Context())
	resource, level, err := h.Service.GetByID(r.Context(), chi.URLParam(r, "id"), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resource": resource,
		"access":   level,
	})
}

// Create handles POST / with a JSON payload of title plus the kind's fields.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipalFromContext(r.Context())

	var req struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Items       []models.TodoItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	resource, err := h.Service.Create(r.Context(), caller, req.Title, req.Description, req.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resource)
}

// Update handles PUT /{id} with a partial payload; absent fields keep their
// stored values.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipalFromContext(r.Context())

	var patch models.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	resource, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), caller, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

// Delete handles DELETE /{id}: full deletion for the owner, share
// self-removal for a collaborator.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipalFromContext(r.Context())

	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id"), caller); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// Share handles POST /{id}/share with {"email": ..., "access": ...}.
func (h *ResourceHandler) Share(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipalFromContext(r.Context())

	var req struct {
		Email  string             `json:"email"`
		Access models.AccessLevel `json:"access"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	resource, err := h.Service.Share(r.Context(), chi.URLParam(r, "id"), caller, req.Email, req.Access)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

// UpdateSharedAccess handles PUT /{id}/shared/{entryID} with {"access": ...}.
func (h *ResourceHandler) UpdateSharedAccess(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipalFromContext(r.Context())

	var req struct {
		Access models.AccessLevel `json:"access"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	resource, err := h.Service.UpdateSharedAccess(r.Context(), chi.URLParam(r, "id"), caller, chi.URLParam(r, "entryID"), req.Access)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

// RevokeShare handles DELETE /{id}/{userID}/share.
func (h *ResourceHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipalFromContext(r.Context())
	target := models.Principal(chi.URLParam(r, "userID"))

	resource, err := h.Service.RevokeShare(r.Context(), chi.URLParam(r, "id"), caller, target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrTargetNotFound),
		errors.Is(err, share.ErrPrincipalNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrUnauthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrInvalidAccessLevel),
		errors.Is(err, share.ErrOwnerEntry):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
