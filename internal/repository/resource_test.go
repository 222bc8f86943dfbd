package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/atinyakov/NoteSync/internal/models"
)

func setupResourceMock(t *testing.T) (*PostgresResourceRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresResourceRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

const (
	resourceCols = `SELECT id, kind, owner_id, title, description, items, updated_at FROM resources`
	shareCols    = `SELECT id, resource_id, user_id, access FROM shares`
)

func TestResourceGetByID(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(resourceCols).
		WithArgs("r1", "todo").
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "owner_id", "title", "description", "items", "updated_at"}).
			AddRow("r1", "todo", "u1", "Groceries", "", []byte(`[{"text":"milk","completed":true}]`), now))
	mock.ExpectQuery(shareCols).
		WillReturnRows(sqlmock.NewRows([]string{"id", "resource_id", "user_id", "access"}).
			AddRow("s1", "r1", "u2", "viewer").
			AddRow("s2", "r1", "u3", "editor"))

	got, err := repo.GetByID(context.Background(), models.KindTodo, "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Owner != "u1" || got.Title != "Groceries" {
		t.Errorf("resource = %+v; want owner u1, title Groceries", got)
	}
	if len(got.Items) != 1 || !got.Items[0].Completed {
		t.Errorf("items = %+v; want one completed item", got.Items)
	}
	if len(got.SharedWith) != 2 {
		t.Fatalf("shares = %+v; want 2 entries", got.SharedWith)
	}
	if got.SharedWith[1].Level != models.LevelEditor {
		t.Errorf("second entry level = %q; want editor", got.SharedWith[1].Level)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestResourceGetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	mock.ExpectQuery(resourceCols).
		WithArgs("missing", "note").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), models.KindNote, "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("error = %v; want sql.ErrNoRows", err)
	}
}

func TestResourceCreate(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectExec(`INSERT INTO resources`).
		WithArgs("r1", "note", "u1", "A", "first", []byte(`[]`), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Resource{
		ID:          "r1",
		Kind:        models.KindNote,
		Owner:       "u1",
		Title:       "A",
		Description: "first",
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestResourceReplace(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE resources SET`).
		WithArgs("A2", "x", []byte(`[]`), now, "r1", "note").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM shares WHERE resource_id`).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO shares`).
		WithArgs("s1", "r1", "u2", "viewer").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Replace(context.Background(), &models.Resource{
		ID:          "r1",
		Kind:        models.KindNote,
		Owner:       "u1",
		Title:       "A2",
		Description: "x",
		SharedWith: []models.ShareEntry{
			{ID: "s1", Principal: "u2", Level: models.LevelViewer},
		},
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestResourceReplace_Gone(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE resources SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), &models.Resource{ID: "r1", Kind: models.KindNote})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("error = %v; want sql.ErrNoRows", err)
	}
}

func TestResourceDelete(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM resources`).
		WithArgs("r1", "todo").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), models.KindTodo, "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResourceDelete_NotFound(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM resources`).
		WithArgs("missing", "todo").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), models.KindTodo, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("error = %v; want sql.ErrNoRows", err)
	}
}

func TestResourceListAccessible(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(resourceCols).
		WithArgs("note", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "owner_id", "title", "description", "items", "updated_at"}).
			AddRow("r2", "note", "u1", "Mine", "", []byte(`[]`), now).
			AddRow("r3", "note", "u9", "Theirs", "", []byte(`[]`), now.Add(-time.Hour)))
	mock.ExpectQuery(shareCols).
		WillReturnRows(sqlmock.NewRows([]string{"id", "resource_id", "user_id", "access"}).
			AddRow("s3", "r3", "u1", "editor"))

	got, err := repo.ListAccessible(context.Background(), models.KindNote, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d resources; want 2", len(got))
	}
	if len(got[1].SharedWith) != 1 || got[1].SharedWith[0].Principal != "u1" {
		t.Errorf("second resource shares = %+v; want entry for u1", got[1].SharedWith)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestResourceListOwned_Empty(t *testing.T) {
	repo, mock, cleanup := setupResourceMock(t)
	defer cleanup()

	mock.ExpectQuery(resourceCols).
		WithArgs("note", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "owner_id", "title", "description", "items", "updated_at"}))

	got, err := repo.ListOwned(context.Background(), models.KindNote, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("got %v; want nil for no rows", got)
	}
}
