package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"docshare/internal/model"
	"docshare/internal/repository"
	repoMocks "docshare/internal/repository/mocks"
	"docshare/internal/storage"
	storeMocks "docshare/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var actor = &model.User{ID: "user-1", Name: "alice", Grade: "senior"}

func storageObjectInfo(key string, size int64) storage.ObjectInfo {
	return storage.ObjectInfo{Key: key, Size: size}
}

func TestDocumentService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("metadata only", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo)

		mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
			return doc.ID != "" && doc.Title == "Notice A" &&
				doc.Category == model.DefaultCategory &&
				doc.Author == "alice" && doc.Grade == "senior" &&
				doc.Content == "" && doc.Filename == ""
		})).Return(&model.Document{ID: "gen-id", Title: "Notice A"}, nil)

		doc, err := svc.Create(ctx, actor, CreateDocumentInput{Title: "Notice A"})

		assert.NoError(t, err)
		assert.Equal(t, "gen-id", doc.ID)
		mStore.AssertNotCalled(t, "Put")
		mRepo.AssertExpectations(t)
	})

	t.Run("missing title", func(t *testing.T) {
		svc := NewDocumentService(new(storeMocks.MockStorage), new(repoMocks.MockDocumentRepository))

		_, err := svc.Create(ctx, actor, CreateDocumentInput{})
		assert.ErrorIs(t, err, ErrTitleRequired)
	})

	t.Run("text file becomes inline content", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo)

		mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
			return doc.Content == "hello world" && doc.Filename == ""
		})).Return(&model.Document{ID: "gen-id", Content: "hello world"}, nil)

		doc, err := svc.Create(ctx, actor, CreateDocumentInput{
			Title: "t",
			File: &FileUpload{
				Reader:      strings.NewReader("hello world"),
				Filename:    "notes.txt",
				ContentType: "text/plain",
				Size:        11,
			},
		})

		assert.NoError(t, err)
		assert.Equal(t, "hello world", doc.Content)
		mStore.AssertNotCalled(t, "Put")
	})

	t.Run("non-UTF-8 text file rejected", func(t *testing.T) {
		svc := NewDocumentService(new(storeMocks.MockStorage), new(repoMocks.MockDocumentRepository))

		_, err := svc.Create(ctx, actor, CreateDocumentInput{
			Title: "t",
			File: &FileUpload{
				Reader:      strings.NewReader("\xff\xfe\xfd"),
				Filename:    "broken.txt",
				ContentType: "text/plain",
				Size:        3,
			},
		})
		assert.ErrorIs(t, err, ErrNotUTF8)
	})

	t.Run("binary file stored by sanitized filename", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo)

		r := strings.NewReader("%PDF-1.4")
		mStore.On("Put", ctx, "uploads/report_2024.pdf", r, mock.Anything).
			Return(storageObjectInfo("uploads/report_2024.pdf", 8), nil)

		mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
			return doc.Filename == "report_2024.pdf" && doc.Content == ""
		})).Return(&model.Document{ID: "gen-id", Filename: "report_2024.pdf"}, nil)

		doc, err := svc.Create(ctx, actor, CreateDocumentInput{
			Title: "t",
			File: &FileUpload{
				Reader:      r,
				Filename:    "../report 2024.pdf",
				ContentType: "application/pdf",
				Size:        8,
			},
		})

		assert.NoError(t, err)
		assert.Equal(t, "report_2024.pdf", doc.Filename)
		mStore.AssertExpectations(t)
	})

	t.Run("repository error rolls back stored object", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo)

		r := strings.NewReader("bytes")
		mStore.On("Put", ctx, "uploads/a.bin", r, mock.Anything).
			Return(storageObjectInfo("uploads/a.bin", 5), nil)
		mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		mStore.On("Delete", ctx, "uploads/a.bin").Return(nil)

		_, err := svc.Create(ctx, actor, CreateDocumentInput{
			Title: "t",
			File:  &FileUpload{Reader: r, Filename: "a.bin", ContentType: "application/octet-stream", Size: 5},
		})

		assert.ErrorContains(t, err, "db save failed: db fail")
		mStore.AssertExpectations(t)
	})
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDocumentService(mStore, mRepo)

	mRepo.On("List", ctx, repository.ListQuery{Page: 1, PerPage: 20}).
		Return(&repository.PageResult[model.Document]{
			Items: []model.Document{{ID: "d1"}},
			Total: 41,
		}, nil)

	res, err := svc.List(ctx, repository.ListQuery{})

	require.NoError(t, err)
	assert.Equal(t, 41, res.Total)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 1, res.Page)
	assert.Len(t, res.Items, 1)
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDocumentService(new(storeMocks.MockStorage), mRepo)

	t.Run("found", func(t *testing.T) {
		mRepo.On("FindByID", ctx, "d1").Return(&model.Document{ID: "d1"}, nil).Once()

		doc, err := svc.Get(ctx, "d1")
		assert.NoError(t, err)
		assert.Equal(t, "d1", doc.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows).Once()

		_, err := svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()
	title := "new title"

	t.Run("non-author forbidden", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(new(storeMocks.MockStorage), mRepo)

		mRepo.On("FindByID", ctx, "d1").Return(&model.Document{ID: "d1", Author: "someone-else"}, nil)

		_, err := svc.Update(ctx, actor, "d1", DocumentPatch{Title: &title})
		assert.ErrorIs(t, err, ErrForbidden)
		mRepo.AssertNotCalled(t, "Update")
	})

	t.Run("partial patch leaves other fields", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(new(storeMocks.MockStorage), mRepo)

		existing := &model.Document{ID: "d1", Author: "alice", Title: "old", Category: "notice", Description: "keep"}
		mRepo.On("FindByID", ctx, "d1").Return(existing, nil)
		mRepo.On("Update", ctx, mock.MatchedBy(func(doc *model.Document) bool {
			return doc.Title == "new title" && doc.Category == "notice" && doc.Description == "keep"
		})).Return(&model.Document{ID: "d1", Title: "new title"}, nil)

		doc, err := svc.Update(ctx, actor, "d1", DocumentPatch{Title: &title})
		assert.NoError(t, err)
		assert.Equal(t, "new title", doc.Title)
	})

	t.Run("new file clears inline content and removes old object", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo)

		existing := &model.Document{ID: "d1", Author: "alice", Title: "t", Content: "inline", Filename: "old.bin"}
		mRepo.On("FindByID", ctx, "d1").Return(existing, nil)

		r := strings.NewReader("new-bytes")
		mStore.On("Put", ctx, "uploads/new.bin", r, mock.Anything).
			Return(storageObjectInfo("uploads/new.bin", 9), nil)
		mStore.On("Delete", ctx, "uploads/old.bin").Return(nil)

		mRepo.On("Update", ctx, mock.MatchedBy(func(doc *model.Document) bool {
			return doc.Filename == "new.bin" && doc.Content == ""
		})).Return(&model.Document{ID: "d1", Filename: "new.bin"}, nil)

		doc, err := svc.Update(ctx, actor, "d1", DocumentPatch{
			File: &FileUpload{Reader: r, Filename: "new.bin", ContentType: "application/octet-stream", Size: 9},
		})

		assert.NoError(t, err)
		assert.Equal(t, "new.bin", doc.Filename)
		assert.Empty(t, doc.Content)
		mStore.AssertExpectations(t)
	})

	t.Run("old object cleanup failure is not fatal", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo)

		existing := &model.Document{ID: "d1", Author: "alice", Title: "t", Filename: "old.bin"}
		mRepo.On("FindByID", ctx, "d1").Return(existing, nil)

		r := strings.NewReader("x")
		mStore.On("Put", ctx, "uploads/new.bin", r, mock.Anything).
			Return(storageObjectInfo("uploads/new.bin", 1), nil)
		mStore.On("Delete", ctx, "uploads/old.bin").Return(errors.New("object store down"))
		mRepo.On("Update", ctx, mock.Anything).Return(&model.Document{ID: "d1", Filename: "new.bin"}, nil)

		_, err := svc.Update(ctx, actor, "d1", DocumentPatch{
			File: &FileUpload{Reader: r, Filename: "new.bin", ContentType: "application/octet-stream", Size: 1},
		})

		assert.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(new(storeMocks.MockStorage), mRepo)

		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.Update(ctx, actor, "missing", DocumentPatch{Title: &title})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("author deletes with attachment", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo)

		mRepo.On("FindByID", ctx, "d1").Return(&model.Document{ID: "d1", Author: "alice", Filename: "a.pdf"}, nil)
		mStore.On("Delete", ctx, "uploads/a.pdf").Return(nil)
		mRepo.On("Delete", ctx, "d1").Return(nil)

		assert.NoError(t, svc.Delete(ctx, actor, "d1"))
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("storage failure is logged, delete still succeeds", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo)

		mRepo.On("FindByID", ctx, "d1").Return(&model.Document{ID: "d1", Author: "alice", Filename: "a.pdf"}, nil)
		mStore.On("Delete", ctx, "uploads/a.pdf").Return(errors.New("object store down"))
		mRepo.On("Delete", ctx, "d1").Return(nil)

		assert.NoError(t, svc.Delete(ctx, actor, "d1"))
	})

	t.Run("non-author forbidden", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(new(storeMocks.MockStorage), mRepo)

		mRepo.On("FindByID", ctx, "d1").Return(&model.Document{ID: "d1", Author: "someone-else"}, nil)

		err := svc.Delete(ctx, actor, "d1")
		assert.ErrorIs(t, err, ErrForbidden)
		mRepo.AssertNotCalled(t, "Delete")
	})
}

func TestDocumentService_Increment(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDocumentService(new(storeMocks.MockStorage), mRepo)

	mRepo.On("IncrementViews", ctx, "d1").Return(nil)
	mRepo.On("IncrementDownloads", ctx, "d1").Return(nil)
	mRepo.On("IncrementViews", ctx, "missing").Return(sql.ErrNoRows)

	assert.NoError(t, svc.IncrementViews(ctx, "d1"))
	assert.NoError(t, svc.IncrementDownloads(ctx, "d1"))
	assert.ErrorIs(t, svc.IncrementViews(ctx, "missing"), ErrNotFound)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"my report 2024.pdf", "my_report_2024.pdf"},
		{"../../etc/passwd", "passwd"},
		{"..\\..\\evil.exe", "evil.exe"},
		{".hidden", "hidden"},
		{"", "file"},
		{"///", "file"},
		{"archive.tar.gz", "archive.tar.gz"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}
}
