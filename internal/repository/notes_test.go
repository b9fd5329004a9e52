package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/lib/pq"
)

func setupNoteMock(t *testing.T) (*PostgresNoteRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresNoteRepository(db), mock, func() { db.Close() }
}

var noteCols = []string{"id", "group_id", "user_id", "title", "date_tag", "body", "public", "pinned"}

func TestListByUser(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM notes WHERE user_id = $1 ORDER BY pinned DESC, date_tag DESC`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(noteCols).
			AddRow("n1", "g1", "u1", "Pinned", ts, "body", 0, 1).
			AddRow("n2", nil, "u1", "Plain", ts.Add(-time.Hour), "", 1, 0))

	notes, err := repo.ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].GroupID == nil || *notes[0].GroupID != "g1" {
		t.Errorf("expected group g1 on first note, got %v", notes[0].GroupID)
	}
	if notes[1].GroupID != nil {
		t.Errorf("expected nil group on second note, got %v", *notes[1].GroupID)
	}
	if !notes[0].DateTag.Equal(ts) {
		t.Errorf("date tag not scanned: %v", notes[0].DateTag)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestListPublic_Empty(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM notes WHERE public = 1`)).
		WillReturnRows(sqlmock.NewRows(noteCols))

	notes, err := repo.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notes == nil || len(notes) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", notes)
	}
}

func TestListPublic_QueryError(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM notes WHERE public = 1`)).
		WillReturnError(errors.New("db down"))

	if _, err := repo.ListPublic(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestNoteGetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM notes WHERE id = $1`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(noteCols))

	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNoteInsert(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()
	ts := models.NewTimestamp(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	n := models.Note{ID: "n1", UserID: "u1", Title: "T", DateTag: ts, Body: "B", Public: 1}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notes (id, group_id, user_id, title, date_tag, body, public, pinned) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)).
		WithArgs("n1", nil, "u1", "T", ts.Time, "B", 1, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Insert(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNoteUpdate(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	title := "New title"
	pinned := 1

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE notes SET`)).
		WithArgs("n1", nil, title, nil, nil, nil, pinned).
		WillReturnRows(sqlmock.NewRows(noteCols).
			AddRow("n1", nil, "u1", title, ts, "body", 0, 1))

	n, err := repo.Update(context.Background(), "n1", models.NotePatch{Title: &title, Pinned: &pinned})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Title != title || n.Pinned != 1 || n.Body != "body" {
		t.Errorf("unexpected note after update: %+v", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNoteUpdate_NotFound(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE notes SET`)).
		WillReturnRows(sqlmock.NewRows(noteCols))

	if _, err := repo.Update(context.Background(), "gone", models.NotePatch{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNoteDelete(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()
	query := regexp.QuoteMeta(`DELETE FROM notes WHERE id = $1`)

	mock.ExpectExec(query).WithArgs("n1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("n1").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "n1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(context.Background(), "n1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestNoteInsert_UnknownGroup(t *testing.T) {
	repo, mock, cleanup := setupNoteMock(t)
	defer cleanup()
	g := "no-such-group"

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notes`)).
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

	err := repo.Insert(context.Background(), models.Note{ID: "n1", GroupID: &g, UserID: "u1"})
	if !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("expected ErrUnknownGroup, got %v", err)
	}
}
