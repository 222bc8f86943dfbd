package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/NoteSync/internal/middleware"
	"github.com/atinyakov/NoteSync/internal/models"
)

// recentContacts caps the recent-share contact list.
const recentContacts = 10

// ContactStore lists a user's recently used share contacts.
type ContactStore interface {
	ListContacts(ctx context.Context, owner models.Principal, limit int) ([]models.Contact, error)
}

// ContactsHandler handles GET /api/shared-contacts.
type ContactsHandler struct {
	Store ContactStore
}

// List returns the caller's most recently used share contacts.
func (h *ContactsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipalFromContext(r.Context())
	contacts, err := h.Store.ListContacts(r.Context(), caller, recentContacts)
	if err != nil {
		writeError(w, err)
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}
