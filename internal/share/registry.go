// Package share owns the mutable share list of a resource and applies
// grant, update, revoke and self-removal operations to it.
package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/NoteSync/internal/models"
)

var (
	// ErrEntryNotFound is returned when no share entry matches the given id.
	ErrEntryNotFound = errors.New("share entry not found")
	// ErrNotShared is returned on self-removal when the principal holds no entry.
	ErrNotShared = errors.New("resource is not shared with this user")
	// ErrPrincipalNotFound is returned when the granted principal does not
	// resolve to a known user identity.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrOwnerEntry is returned when a grant would put the owner in its own
	// share list.
	ErrOwnerEntry = errors.New("cannot share a resource with its owner")
)

// Store persists a resource aggregate, replacing the stored document.
type Store interface {
	// Replace writes the full resource document. It must be atomic: on
	// error the stored state is unchanged.
	Replace(ctx context.Context, r *models.Resource) error
}

// UserLookup resolves whether a principal is a known user identity.
type UserLookup interface {
	// Exists reports whether a user with the given id exists.
	Exists(ctx context.Context, id models.Principal) (bool, error)
}

// Registry applies share-list mutations. Callers must have verified owner
// access beforehand, except for SelfRemove. Every mutation is persisted via
// the Store before it is applied to the caller's in-memory snapshot, so a
// failed persist leaves the snapshot untouched.
type Registry struct {
	store Store
	users UserLookup
	// now supplies timestamps; replaced in tests.
	now func() time.Time
}

// NewRegistry constructs a Registry over the given store and user lookup.
func NewRegistry(store Store, users UserLookup) *Registry {
	return &Registry{store: store, users: users, now: time.Now}
}

// Grant adds or updates the entry for p with the given level. Granting to an
// already-shared principal overwrites its level and keeps the entry id, so
// repeated grants are idempotent. Fails with ErrPrincipalNotFound if p is not
// a known user and ErrOwnerEntry if p owns the resource.
func (g *Registry) Grant(ctx context.Context, r *models.Resource, p models.Principal, level models.AccessLevel) (*models.ShareEntry, error) {
	if p == r.Owner {
		return nil, ErrOwnerEntry
	}
	known, err := g.users.Exists(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("lookup principal: %w", err)
	}
	if !known {
		return nil, ErrPrincipalNotFound
	}

	next := make([]models.ShareEntry, len(r.SharedWith))
	copy(next, r.SharedWith)

	var granted *models.ShareEntry
	for i := range next {
		if next[i].Principal == p {
			next[i].Level = level
			granted = &next[i]
			break
		}
	}
	if granted == nil {
		next = append(next, models.ShareEntry{
			ID:        uuid.NewString(),
			Principal: p,
			Level:     level,
		})
		granted = &next[len(next)-1]
	}

	if err := g.commit(ctx, r, next); err != nil {
		return nil, err
	}
	return granted, nil
}

// UpdateLevel changes the level of the entry with the given id.
// Fails with ErrEntryNotFound if no entry has that id.
func (g *Registry) UpdateLevel(ctx context.Context, r *models.Resource, entryID string, level models.AccessLevel) (*models.ShareEntry, error) {
	next := make([]models.ShareEntry, len(r.SharedWith))
	copy(next, r.SharedWith)

	var updated *models.ShareEntry
	for i := range next {
		if next[i].ID == entryID {
			next[i].Level = level
			updated = &next[i]
			break
		}
	}
	if updated == nil {
		return nil, ErrEntryNotFound
	}

	if err := g.commit(ctx, r, next); err != nil {
		return nil, err
	}
	return updated, nil
}

// Revoke removes the entry with the given id and returns the removed entry.
// Fails with ErrEntryNotFound if no entry has that id.
func (g *Registry) Revoke(ctx context.Context, r *models.Resource, entryID string) (*models.ShareEntry, error) {
	next := make([]models.ShareEntry, 0, len(r.SharedWith))
	var removed *models.ShareEntry
	for _, e := range r.SharedWith {
		if e.ID == entryID {
			e := e
			removed = &e
			continue
		}
		next = append(next, e)
	}
	if removed == nil {
		return nil, ErrEntryNotFound
	}

	if err := g.commit(ctx, r, next); err != nil {
		return nil, err
	}
	return removed, nil
}

// SelfRemove removes the entry held by p, the same path a collaborator's
// "delete" takes. Fails with ErrNotShared if p holds no entry.
func (g *Registry) SelfRemove(ctx context.Context, r *models.Resource, p models.Principal) error {
	entry := r.EntryFor(p)
	if entry == nil {
		return ErrNotShared
	}
	_, err := g.Revoke(ctx, r, entry.ID)
	if errors.Is(err, ErrEntryNotFound) {
		return ErrNotShared
	}
	return err
}

// commit persists the mutated share list and only then applies it to the
// caller's snapshot, bumping UpdatedAt.
func (g *Registry) commit(ctx context.Context, r *models.Resource, next []models.ShareEntry) error {
	staged := *r
	staged.SharedWith = next
	staged.UpdatedAt = g.now()

	if err := g.store.Replace(ctx, &staged); err != nil {
		return fmt.Errorf("persist share list: %w", err)
	}

	r.SharedWith = next
	r.UpdatedAt = staged.UpdatedAt
	return nil
}
