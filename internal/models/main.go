// Package models defines the core data structures for users, resources and
// share entries.
package models

import "time"

// Principal is the opaque, stable identifier of an authenticated user.
type Principal string

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID Principal `json:"id"`
	// Name is the display name chosen by the user.
	Name string `json:"name"`
	// Email is the unique login email, stored lowercase.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"-"`
}

// AccessLevel is an ordered capability tier on a resource.
type AccessLevel string

const (
	// LevelNone means the principal has no access at all.
	LevelNone AccessLevel = ""
	// LevelViewer grants read-only access.
	LevelViewer AccessLevel = "viewer"
	// LevelEditor grants read and write access to the payload.
	LevelEditor AccessLevel = "editor"
	// LevelOwner grants everything an editor has plus share management
	// and deletion of the resource itself.
	LevelOwner AccessLevel = "owner"
)

// levelRank orders access levels: none < viewer < editor < owner.
var levelRank = map[AccessLevel]int{
	LevelNone:   0,
	LevelViewer: 1,
	LevelEditor: 2,
	LevelOwner:  3,
}

// AtLeast reports whether l grants at least the capabilities of min.
func (l AccessLevel) AtLeast(min AccessLevel) bool {
	return levelRank[l] >= levelRank[min]
}

// ValidShareLevel reports whether l is a level that can be granted to a
// collaborator. Owner is never grantable.
func (l AccessLevel) ValidShareLevel() bool {
	return l == LevelViewer || l == LevelEditor
}

// ShareEntry grants one principal a specific access level on a resource.
// At most one entry exists per (resource, principal) pair, and the owner
// never appears in its own resource's share list.
type ShareEntry struct {
	// ID is unique within the resource's share list.
	ID string `json:"id"`
	// Principal is the user the entry grants access to.
	Principal Principal `json:"userId"`
	// Level is viewer or editor.
	Level AccessLevel `json:"access"`
}

// ResourceKind tags the payload variant of a resource.
type ResourceKind string

const (
	// KindNote is a title + free-form description.
	KindNote ResourceKind = "note"
	// KindTodo is a title + ordered checklist.
	KindTodo ResourceKind = "todo"
)

// TodoItem is a single checklist line of a todo resource.
type TodoItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Resource is the unit of ownership and sharing: a note or a todo.
// Owner is immutable after creation; SharedWith principals are distinct;
// UpdatedAt increases on every accepted mutation.
type Resource struct {
	// ID is the unique identifier for the resource.
	ID string `json:"id"`
	// Kind selects the payload variant.
	Kind ResourceKind `json:"kind"`
	// Owner is the principal that created the resource.
	Owner Principal `json:"ownerId"`
	// Title is required for both kinds.
	Title string `json:"title"`
	// Description is the note payload; empty for todos.
	Description string `json:"description,omitempty"`
	// Items is the todo payload; nil for notes.
	Items []TodoItem `json:"items,omitempty"`
	// SharedWith lists the collaborators and their levels.
	SharedWith []ShareEntry `json:"sharedWith"`
	// UpdatedAt is the time of the last accepted mutation.
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntryFor returns the share entry for p, or nil if p is not a collaborator.
func (r *Resource) EntryFor(p Principal) *ShareEntry {
	for i := range r.SharedWith {
		if r.SharedWith[i].Principal == p {
			return &r.SharedWith[i]
		}
	}
	return nil
}

// Patch is a field-wise partial update of a resource payload.
// Nil fields keep the stored value.
type Patch struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Items       *[]TodoItem `json:"items"`
}

// Apply merges the provided fields of the patch into r.
func (p Patch) Apply(r *Resource) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Items != nil {
		r.Items = *p.Items
	}
}

// Contact is a "recently shared with" record kept per owner.
type Contact struct {
	Owner        Principal `json:"ownerId"`
	Contact      Principal `json:"contactId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	LastSharedAt time.Time `json:"lastSharedAt"`
}
