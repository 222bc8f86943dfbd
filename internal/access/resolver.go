// Package access computes a principal's effective access level on a resource.
package access

import "github.com/atinyakov/NoteSync/internal/models"

// Resolve returns the access level p holds on r: LevelOwner if p owns r,
// the matching share entry's level if p is a collaborator, LevelNone
// otherwise. It is a total function with no side effects; callers translate
// LevelNone into an authorization failure.
func Resolve(r *models.Resource, p models.Principal) models.AccessLevel {
	if r == nil {
		return models.LevelNone
	}
	if r.Owner == p {
		return models.LevelOwner
	}
	if entry := r.EntryFor(p); entry != nil {
		return entry.Level
	}
	return models.LevelNone
}
