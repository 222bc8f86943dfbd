// Package service provides the business logic for resource access control,
// sharing and synchronization, delegating persistence to repository
// interfaces and event delivery to the notification router.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/NoteSync/internal/access"
	"github.com/atinyakov/NoteSync/internal/models"
	"github.com/atinyakov/NoteSync/internal/share"
)

// ResourceStore defines the persistence operations needed by the
// ResourceService. GetByID and Delete return sql.ErrNoRows for an absent
// resource.
type ResourceStore interface {
	GetByID(ctx context.Context, kind models.ResourceKind, id string) (*models.Resource, error)
	ListOwned(ctx context.Context, kind models.ResourceKind, p models.Principal) ([]models.Resource, error)
	ListSharedWith(ctx context.Context, kind models.ResourceKind, p models.Principal) ([]models.Resource, error)
	ListAccessible(ctx context.Context, kind models.ResourceKind, p models.Principal) ([]models.Resource, error)
	Create(ctx context.Context, r *models.Resource) error
	Replace(ctx context.Context, r *models.Resource) error
	Delete(ctx context.Context, kind models.ResourceKind, id string) error
}

// Identity resolves user identities for share targets and contact records.
type Identity interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id models.Principal) (*models.User, error)
	UpsertContact(ctx context.Context, c *models.Contact) error
}

// Notifier fans domain events out to affected principals. Implementations
// are fire-and-forget; none of these calls can fail a mutation.
type Notifier interface {
	ResourceUpdated(r *models.Resource)
	ResourceDeleted(r *models.Resource)
	ItemShared(r *models.Resource, target models.Principal, ownerName string, level models.AccessLevel)
	AccessLevelChanged(r *models.Resource, target models.Principal, level models.AccessLevel)
	AccessRevoked(r *models.Resource, target models.Principal)
	AccessSelfRemoved(r *models.Resource, target models.Principal)
}

// ResourceService implements every per-resource use case for one resource
// kind. Notes and todos differ only in payload, so both are instances of
// this one service with a different kind tag.
type ResourceService struct {
	kind     models.ResourceKind
	store    ResourceStore
	users    Identity
	shares   *share.Registry
	notifier Notifier
	log      *zap.Logger
	// now supplies timestamps; replaced in tests.
	now func() time.Time
}

// NewResourceService constructs a ResourceService for the given kind.
func NewResourceService(
	kind models.ResourceKind,
	store ResourceStore,
	users Identity,
	shares *share.Registry,
	notifier Notifier,
	log *zap.Logger,
) *ResourceService {
	return &ResourceService{
		kind:     kind,
		store:    store,
		users:    users,
		shares:   shares,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Kind returns the resource kind this service instance manages.
func (s *ResourceService) Kind() models.ResourceKind { return s.kind }

// ListOwned returns the resources p owns, newest first.
func (s *ResourceService) ListOwned(ctx context.Context, p models.Principal) ([]models.Resource, error) {
	return s.store.ListOwned(ctx, s.kind, p)
}

// ListShared returns the resources shared with p, newest first.
func (s *ResourceService) ListShared(ctx context.Context, p models.Principal) ([]models.Resource, error) {
	return s.store.ListSharedWith(ctx, s.kind, p)
}

// ListAll returns the union of owned and shared-with resources,
// de-duplicated by id and ordered by UpdatedAt descending.
func (s *ResourceService) ListAll(ctx context.Context, p models.Principal) ([]models.Resource, error) {
	return s.store.ListAccessible(ctx, s.kind, p)
}

// GetByID returns the resource and the caller's resolved access level.
// Fails with ErrNotFound if absent and ErrForbidden if p has no access.
func (s *ResourceService) GetByID(ctx context.Context, id string, p models.Principal) (*models.Resource, models.AccessLevel, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, models.LevelNone, err
	}
	level := access.Resolve(r, p)
	if level == models.LevelNone {
		return nil, models.LevelNone, ErrForbidden
	}
	return r, level, nil
}

// Create makes a new resource owned by p with an empty share list.
func (s *ResourceService) Create(ctx context.Context, p models.Principal, title, description string, items []models.TodoItem) (*models.Resource, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	r := &models.Resource{
		ID:        uuid.NewString(),
		Kind:      s.kind,
		Owner:     p,
		Title:     title,
		UpdatedAt: s.now(),
	}
	switch s.kind {
	case models.KindNote:
		r.Description = description
	case models.KindTodo:
		r.Items = items
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Update applies a field-wise partial merge of patch to the resource.
// Requires level >= editor. On success the refreshed resource is persisted
// (full-document replace, last write wins) and a resource_updated event goes
// to the owner and every collaborator.
func (s *ResourceService) Update(ctx context.Context, id string, p models.Principal, patch models.Patch) (*models.Resource, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.Resolve(r, p).AtLeast(models.LevelEditor) {
		return nil, ErrForbidden
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, ErrTitleRequired
	}

	patch.Apply(r)
	r.UpdatedAt = s.now()
	if err := s.store.Replace(ctx, r); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update %s: %w", s.kind, err)
	}

	s.notifier.ResourceUpdated(r)
	return r, nil
}

// Delete is the owner-vs-collaborator deletion split. The owner destroys the
// resource and all its share entries atomically and former collaborators get
// resource_deleted. A collaborator only removes their own share entry; the
// resource survives and only they get access_self_removed. Anyone else gets
// ErrForbidden.
func (s *ResourceService) Delete(ctx context.Context, id string, p models.Principal) error {
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if r.Owner == p {
		if err := s.store.Delete(ctx, s.kind, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("delete %s: %w", s.kind, err)
		}
		s.notifier.ResourceDeleted(r)
		return nil
	}

	if err := s.shares.SelfRemove(ctx, r, p); err != nil {
		if errors.Is(err, share.ErrNotShared) {
			return ErrForbidden
		}
		return err
	}
	s.notifier.AccessSelfRemoved(r, p)
	return nil
}

// Share grants email's account viewer or editor access. Only the owner may
// share. Fails with ErrTargetNotFound when the email resolves to no account;
// in that case no entry is created and no event emitted. Granting to an
// already-shared principal updates its level. The target gets item_shared
// and the owner's recent-contacts list is refreshed best-effort.
func (s *ResourceService) Share(ctx context.Context, id string, caller models.Principal, email string, level models.AccessLevel) (*models.Resource, error) {
	if !level.ValidShareLevel() {
		return nil, ErrInvalidAccessLevel
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Owner != caller {
		return nil, ErrForbidden
	}

	target, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("resolve share target: %w", err)
	}

	if _, err := s.shares.Grant(ctx, r, target.ID, level); err != nil {
		return nil, err
	}

	if err := s.users.UpsertContact(ctx, &models.Contact{
		Owner:        caller,
		Contact:      target.ID,
		Email:        target.Email,
		LastSharedAt: s.now(),
	}); err != nil {
		// contacts are a convenience list; the share itself already committed
		s.log.Warn("failed to record share contact", zap.Error(err))
	}

	ownerName := string(caller)
	if owner, err := s.users.GetByID(ctx, caller); err == nil {
		ownerName = owner.Name
	}
	s.notifier.ItemShared(r, target.ID, ownerName, level)
	return r, nil
}

// UpdateSharedAccess changes an existing share entry's level. Only the owner
// may do this. The affected principal gets access_level_changed carrying the
// resource title and new level.
func (s *ResourceService) UpdateSharedAccess(ctx context.Context, id string, caller models.Principal, entryID string, level models.AccessLevel) (*models.Resource, error) {
	if !level.ValidShareLevel() {
		return nil, ErrInvalidAccessLevel
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Owner != caller {
		return nil, ErrForbidden
	}

	entry, err := s.shares.UpdateLevel(ctx, r, entryID, level)
	if err != nil {
		if errors.Is(err, share.ErrEntryNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.notifier.AccessLevelChanged(r, entry.Principal, level)
	return r, nil
}

// RevokeShare removes target's share entry. Only the owner may revoke. The
// revoked principal gets access_revoked and nobody else is notified.
func (s *ResourceService) RevokeShare(ctx context.Context, id string, caller, target models.Principal) (*models.Resource, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Owner != caller {
		return nil, ErrForbidden
	}

	entry := r.EntryFor(target)
	if entry == nil {
		return nil, ErrNotFound
	}
	if _, err := s.shares.Revoke(ctx, r, entry.ID); err != nil {
		if errors.Is(err, share.ErrEntryNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.notifier.AccessRevoked(r, target)
	return r, nil
}

// load fetches the aggregate and maps an absent row to ErrNotFound.
func (s *ResourceService) load(ctx context.Context, id string) (*models.Resource, error) {
	r, err := s.store.GetByID(ctx, s.kind, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load %s: %w", s.kind, err)
	}
	return r, nil
}
