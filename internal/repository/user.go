package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/atinyakov/NoteSync/internal/models"
)

// PostgresUserRepository implements user identity and recent-contact
// persistence against a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the
// given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// GetByEmail fetches a user by email (case-insensitive).
// Returns sql.ErrNoRows if no user has that email.
func (s *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash FROM users WHERE email = $1
	`, strings.ToLower(email)).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id. Returns sql.ErrNoRows if absent.
func (s *PostgresUserRepository) GetByID(ctx context.Context, id models.Principal) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user with the given id exists.
func (s *PostgresUserRepository) Exists(ctx context.Context, id models.Principal) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`,
		id,
	).Scan(&exists)
	return exists, err
}

// Create inserts a new user record.
func (s *PostgresUserRepository) Create(ctx context.Context, u *models.User) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4)
	`, u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpsertContact records that owner shared something with contact, bumping
// last_shared_at on repeat shares.
func (s *PostgresUserRepository) UpsertContact(ctx context.Context, c *models.Contact) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO shared_contacts (owner_id, contact_id, email, last_shared_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, contact_id) DO UPDATE SET last_shared_at = EXCLUDED.last_shared_at
	`, c.Owner, c.Contact, strings.ToLower(c.Email), c.LastSharedAt)
	if err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}
	return nil
}

// ListContacts returns the owner's most recently used share contacts,
// newest first, capped at limit.
func (s *PostgresUserRepository) ListContacts(ctx context.Context, owner models.Principal, limit int) ([]models.Contact, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT c.owner_id, c.contact_id, c.email, u.name, c.last_shared_at
		FROM shared_contacts c JOIN users u ON u.id = c.contact_id
		WHERE c.owner_id = $1
		ORDER BY c.last_shared_at DESC
		LIMIT $2
	`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.Owner, &c.Contact, &c.Email, &c.Name, &c.LastSharedAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
