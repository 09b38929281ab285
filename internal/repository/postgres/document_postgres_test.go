package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"docshare/internal/model"
	"docshare/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var docCols = []string{"id", "category", "title", "description", "content", "author", "grade", "filename", "created_at", "views", "downloads"}

func docRow(d *model.Document) *sqlmock.Rows {
	return sqlmock.NewRows(docCols).
		AddRow(d.ID, d.Category, d.Title, d.Description, d.Content, d.Author, d.Grade, d.Filename, d.CreatedAt.Time, d.Views, d.Downloads)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:        "test-uuid",
		Category:  "general",
		Title:     "Notice A",
		Author:    "alice",
		Grade:     "senior",
		Content:   "hello",
		CreatedAt: model.NewDate(now),
	}

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.ID, doc.Category, doc.Title, doc.Description, doc.Content, doc.Author, doc.Grade, doc.Filename, doc.CreatedAt, doc.Views, doc.Downloads).
		WillReturnRows(docRow(doc))

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, doc.ID, result.ID)
	assert.Equal(t, "Notice A", result.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(docRow(&model.Document{ID: "test-id", Category: "general", Title: "t", CreatedAt: model.NewDate(time.Now())}))

		doc, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "test-id", doc.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("defaults", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY created_at DESC, id DESC LIMIT").
			WithArgs(20, 0).
			WillReturnRows(docRow(&model.Document{ID: "d1", Category: "general", Title: "t", CreatedAt: model.NewDate(now)}))

		res, err := repo.List(ctx, repository.ListQuery{})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("category filter and search", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE category = (.+) AND \\(title ILIKE (.+) OR author ILIKE (.+) OR description ILIKE (.+)\\)").
			WithArgs("notice", "%plan%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE category = (.+) ORDER BY created_at DESC").
			WithArgs("notice", "%plan%", 10, 10).
			WillReturnRows(sqlmock.NewRows(docCols))

		res, err := repo.List(ctx, repository.ListQuery{Page: 2, PerPage: 10, Category: "notice", Search: "plan"})

		assert.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.Empty(t, res.Items)
	})

	t.Run("all-categories sentinel disables filter", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents$").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY created_at DESC").
			WithArgs(20, 0).
			WillReturnRows(sqlmock.NewRows(docCols))

		_, err := repo.List(ctx, repository.ListQuery{Category: repository.CategoryAll})
		assert.NoError(t, err)
	})

	t.Run("sort by title", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY title ASC, id DESC LIMIT").
			WithArgs(20, 0).
			WillReturnRows(sqlmock.NewRows(docCols))

		_, err := repo.List(ctx, repository.ListQuery{SortBy: repository.SortTitle})
		assert.NoError(t, err)
	})

	t.Run("unknown sort falls back to latest", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY created_at DESC, id DESC LIMIT").
			WithArgs(20, 0).
			WillReturnRows(sqlmock.NewRows(docCols))

		_, err := repo.List(ctx, repository.ListQuery{SortBy: "bogus"})
		assert.NoError(t, err)
	})
}

func TestDocumentPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	doc := &model.Document{ID: "d1", Category: "notice", Title: "updated", Filename: "a.pdf", CreatedAt: model.NewDate(time.Now())}

	mock.ExpectQuery("UPDATE documents SET").
		WithArgs(doc.ID, doc.Category, doc.Title, doc.Description, doc.Content, doc.Filename).
		WillReturnRows(docRow(doc))

	out, err := repo.Update(ctx, doc)

	assert.NoError(t, err)
	assert.Equal(t, "updated", out.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents WHERE id = ?").
		WithArgs("test-id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "test-id")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Increment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("views", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET views = views \\+ 1 WHERE id = ?").
			WithArgs("d1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.IncrementViews(ctx, "d1"))
	})

	t.Run("downloads", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET downloads = downloads \\+ 1 WHERE id = ?").
			WithArgs("d1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.IncrementDownloads(ctx, "d1"))
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET views = views \\+ 1 WHERE id = ?").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.IncrementViews(ctx, "missing"), sql.ErrNoRows)
	})
}
