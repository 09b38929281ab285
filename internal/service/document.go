package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"docshare/internal/model"
	"docshare/internal/repository"
	"docshare/internal/storage"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrNotFound      = errors.New("document not found")
	ErrForbidden     = errors.New("not the document author")
)

// CreateDocumentInput carries the fields of a document creation request.
type CreateDocumentInput struct {
	Title       string
	Category    string
	Description string
	File        *FileUpload
}

// DocumentPatch is a partial update: nil fields are left unchanged.
type DocumentPatch struct {
	Title       *string
	Category    *string
	Description *string
	File        *FileUpload
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items      []model.Document `json:"documents"`
	Total      int              `json:"total_documents"`
	TotalPages int              `json:"total_pages"`
	Page       int              `json:"current_page"`
}

// DocumentService defines the use cases for handling documents.
//
// Ownership: Update and Delete compare the document's stored author name
// against the acting user's display name. Author and grade are
// snapshotted from the acting user at creation time.
type DocumentService interface {
	// Create stores a new document. A text/* file part becomes inline
	// content (UTF-8 required); any other file part is uploaded to
	// object storage and referenced by sanitized filename only. The
	// upload is rolled back if the database insert fails.
	Create(ctx context.Context, actor *model.User, in CreateDocumentInput) (*model.Document, error)

	// List returns a filtered, sorted, paginated listing.
	List(ctx context.Context, q repository.ListQuery) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Update applies a partial update. A replacement file clears inline
	// content (and vice versa); the superseded object is removed
	// best-effort.
	Update(ctx context.Context, actor *model.User, id string, patch DocumentPatch) (*model.Document, error)

	// Delete removes a document and, best-effort, its stored object.
	Delete(ctx context.Context, actor *model.User, id string) error

	// IncrementViews and IncrementDownloads bump the counters by exactly 1.
	IncrementViews(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, id string) error

	// OpenUpload streams a stored attachment by its sanitized filename.
	OpenUpload(ctx context.Context, filename string) (io.ReadCloser, storage.ObjectInfo, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository) DocumentService {
	return &documentService{store: store, repo: repo}
}

// attach applies a file part to the document: text content is inlined,
// anything else is uploaded under its sanitized filename. It returns the
// object key that was uploaded, or "" when nothing was stored.
func (s *documentService) attach(ctx context.Context, doc *model.Document, f *FileUpload) (string, error) {
	if isTextType(f.ContentType) {
		content, err := readText(f.Reader)
		if err != nil {
			return "", err
		}
		doc.Content = content
		doc.Filename = ""
		return "", nil
	}

	name := SanitizeFilename(f.Filename)
	key := uploadKey(name)
	_, err := s.store.Put(ctx, key, f.Reader, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: f.ContentType,
		Metadata: map[string]string{
			"original-filename": f.Filename,
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload to storage: %w", err)
	}
	doc.Filename = name
	doc.Content = ""
	return key, nil
}

func (s *documentService) Create(ctx context.Context, actor *model.User, in CreateDocumentInput) (*model.Document, error) {
	if in.Title == "" {
		return nil, ErrTitleRequired
	}
	category := in.Category
	if category == "" {
		category = model.DefaultCategory
	}

	doc := &model.Document{
		ID:          uuid.New().String(),
		Category:    category,
		Title:       in.Title,
		Description: in.Description,
		Author:      actor.Name,
		Grade:       actor.Grade,
		CreatedAt:   model.NewDate(time.Now().UTC()),
	}

	var uploadedKey string
	if in.File != nil && in.File.Filename != "" {
		key, err := s.attach(ctx, doc, in.File)
		if err != nil {
			return nil, err
		}
		uploadedKey = key
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if uploadedKey != "" {
			if delErr := s.store.Delete(ctx, uploadedKey); delErr != nil {
				return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, q repository.ListQuery) (*DocumentListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = 20
	}

	res, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	totalPages := (res.Total + q.PerPage - 1) / q.PerPage
	return &DocumentListResult{
		Items:      res.Items,
		Total:      res.Total,
		TotalPages: totalPages,
		Page:       q.Page,
	}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, actor *model.User, id string, patch DocumentPatch) (*model.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.Author != actor.Name {
		return nil, ErrForbidden
	}

	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	if patch.Category != nil {
		doc.Category = *patch.Category
	}
	if patch.Description != nil {
		doc.Description = *patch.Description
	}

	if patch.File != nil && patch.File.Filename != "" {
		oldFilename := doc.Filename
		if _, err := s.attach(ctx, doc, patch.File); err != nil {
			return nil, err
		}
		// Remove the superseded object; a leftover file is logged, not fatal.
		if oldFilename != "" && oldFilename != doc.Filename {
			if delErr := s.store.Delete(ctx, uploadKey(oldFilename)); delErr != nil {
				logCleanupFailure("document_update", id, oldFilename, delErr)
			}
		}
	}

	return s.repo.Update(ctx, doc)
}

// Delete removes a document record after an ownership check. Any stored
// attachment is removed best-effort: a storage failure is logged and the
// delete still succeeds.
func (s *documentService) Delete(ctx context.Context, actor *model.User, id string) error {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if doc.Author != actor.Name {
		return ErrForbidden
	}

	if doc.Filename != "" {
		if delErr := s.store.Delete(ctx, uploadKey(doc.Filename)); delErr != nil {
			logCleanupFailure("document_delete", id, doc.Filename, delErr)
		}
	}

	return s.repo.Delete(ctx, id)
}

func (s *documentService) IncrementViews(ctx context.Context, id string) error {
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *documentService) IncrementDownloads(ctx context.Context, id string) error {
	if err := s.repo.IncrementDownloads(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// OpenUpload streams a stored attachment. The filename is sanitized again
// so the route cannot be used to reach arbitrary keys.
func (s *documentService) OpenUpload(ctx context.Context, filename string) (io.ReadCloser, storage.ObjectInfo, error) {
	return s.store.Get(ctx, uploadKey(SanitizeFilename(filename)))
}

func logCleanupFailure(event, docID, filename string, err error) {
	entry := map[string]any{
		"ts":       time.Now().UTC().Format(time.RFC3339Nano),
		"level":    "warn",
		"event":    event + "_file_cleanup_failed",
		"doc_id":   docID,
		"filename": filename,
		"error":    err.Error(),
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
