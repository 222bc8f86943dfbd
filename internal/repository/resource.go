// Package repository provides persistence implementations for resource,
// user and contact aggregates using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/atinyakov/NoteSync/internal/models"
)

// PostgresResourceRepository implements resource aggregate persistence
// against a PostgreSQL database. A resource row plus its share rows form one
// aggregate; Replace rewrites the whole aggregate so the later write wins.
type PostgresResourceRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresResourceRepository creates a new PostgresResourceRepository
// using the provided *sql.DB.
func NewPostgresResourceRepository(db *sql.DB) *PostgresResourceRepository {
	return &PostgresResourceRepository{DB: db}
}

// GetByID fetches a single resource aggregate of the given kind.
// Returns sql.ErrNoRows if the resource does not exist.
func (s *PostgresResourceRepository) GetByID(ctx context.Context, kind models.ResourceKind, id string) (*models.Resource, error) {
	var (
		r        models.Resource
		rawItems []byte
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, kind, owner_id, title, description, items, updated_at FROM resources
		WHERE id = $1 AND kind = $2
	`, id, kind).Scan(&r.ID, &r.Kind, &r.Owner, &r.Title, &r.Description, &rawItems, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalItems(rawItems, &r); err != nil {
		return nil, err
	}

	shares, err := s.sharesFor(ctx, []string{r.ID})
	if err != nil {
		return nil, err
	}
	r.SharedWith = shares[r.ID]
	return &r, nil
}

// ListOwned returns all resources of the given kind owned by p,
// newest first.
func (s *PostgresResourceRepository) ListOwned(ctx context.Context, kind models.ResourceKind, p models.Principal) ([]models.Resource, error) {
	return s.list(ctx, `
		SELECT id, kind, owner_id, title, description, items, updated_at FROM resources
		WHERE kind = $1 AND owner_id = $2
		ORDER BY updated_at DESC
	`, kind, p)
}

// ListSharedWith returns all resources of the given kind shared with p,
// newest first.
func (s *PostgresResourceRepository) ListSharedWith(ctx context.Context, kind models.ResourceKind, p models.Principal) ([]models.Resource, error) {
	return s.list(ctx, `
		SELECT id, kind, owner_id, title, description, items, updated_at FROM resources
		WHERE kind = $1 AND id IN (SELECT resource_id FROM shares WHERE user_id = $2)
		ORDER BY updated_at DESC
	`, kind, p)
}

// ListAccessible returns the union of owned and shared-with resources of the
// given kind, de-duplicated by id, newest first.
func (s *PostgresResourceRepository) ListAccessible(ctx context.Context, kind models.ResourceKind, p models.Principal) ([]models.Resource, error) {
	return s.list(ctx, `
		SELECT id, kind, owner_id, title, description, items, updated_at FROM resources
		WHERE kind = $1 AND (owner_id = $2 OR id IN (SELECT resource_id FROM shares WHERE user_id = $2))
		ORDER BY updated_at DESC
	`, kind, p)
}

// Create inserts a new resource aggregate. The share list of a fresh
// resource is always empty, so only the resource row is written.
func (s *PostgresResourceRepository) Create(ctx context.Context, r *models.Resource) error {
	items, err := marshalItems(r)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO resources (id, kind, owner_id, title, description, items, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.Kind, r.Owner, r.Title, r.Description, items, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// Replace overwrites the stored aggregate with r: payload row and share rows
// in one transaction, so readers never observe a half-replaced document.
// Returns sql.ErrNoRows if the resource no longer exists.
func (s *PostgresResourceRepository) Replace(ctx context.Context, r *models.Resource) error {
	items, err := marshalItems(r)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE resources SET title = $1, description = $2, items = $3, updated_at = $4
		WHERE id = $5 AND kind = $6
	`, r.Title, r.Description, items, r.UpdatedAt, r.ID, r.Kind)
	if err != nil {
		return fmt.Errorf("replace resource: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM shares WHERE resource_id = $1`, r.ID); err != nil {
		return fmt.Errorf("clear shares: %w", err)
	}
	for _, e := range r.SharedWith {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shares (id, resource_id, user_id, access) VALUES ($1, $2, $3, $4)
		`, e.ID, r.ID, e.Principal, e.Level); err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes the resource row; share rows go with it via ON DELETE
// CASCADE, so the aggregate disappears atomically. Returns sql.ErrNoRows if
// the resource does not exist.
func (s *PostgresResourceRepository) Delete(ctx context.Context, kind models.ResourceKind, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM resources WHERE id = $1 AND kind = $2`, id, kind)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// list runs a resource query and hydrates the share lists of every row.
func (s *PostgresResourceRepository) list(ctx context.Context, query string, args ...any) ([]models.Resource, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var (
		resources []models.Resource
		ids       []string
	)
	for rows.Next() {
		var (
			r        models.Resource
			rawItems []byte
		)
		if err := rows.Scan(&r.ID, &r.Kind, &r.Owner, &r.Title, &r.Description, &rawItems, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if err := unmarshalItems(rawItems, &r); err != nil {
			return nil, err
		}
		resources = append(resources, r)
		ids = append(ids, r.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	if len(resources) == 0 {
		return nil, nil
	}

	shares, err := s.sharesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range resources {
		resources[i].SharedWith = shares[resources[i].ID]
	}
	return resources, nil
}

// sharesFor loads the share entries of the given resources in one query.
func (s *PostgresResourceRepository) sharesFor(ctx context.Context, ids []string) (map[string][]models.ShareEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, resource_id, user_id, access FROM shares WHERE resource_id = ANY($1) ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load shares: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.ShareEntry)
	for rows.Next() {
		var (
			e          models.ShareEntry
			resourceID string
		)
		if err := rows.Scan(&e.ID, &resourceID, &e.Principal, &e.Level); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		out[resourceID] = append(out[resourceID], e)
	}
	return out, rows.Err()
}

func marshalItems(r *models.Resource) ([]byte, error) {
	items := r.Items
	if items == nil {
		items = []models.TodoItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	return raw, nil
}

func unmarshalItems(raw []byte, r *models.Resource) error {
	if len(raw) == 0 {
		return nil
	}
	var items []models.TodoItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("unmarshal items: %w", err)
	}
	if len(items) > 0 {
		r.Items = items
	}
	return nil
}
