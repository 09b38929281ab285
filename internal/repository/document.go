package repository

import (
	"context"

	"docshare/internal/model"
)

// CategoryAll is the sentinel category value that disables category filtering.
const CategoryAll = "all"

// Sort keys accepted by List. Anything else falls back to SortLatest.
const (
	SortLatest    = "latest"
	SortViews     = "views"
	SortDownloads = "downloads"
	SortTitle     = "title"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or sql.ErrNoRows when absent.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a filtered, sorted, paginated set of documents and
	// the total matching row count.
	List(ctx context.Context, q ListQuery) (*PageResult[model.Document], error)

	// Update replaces the mutable fields of an existing row.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error

	// IncrementViews and IncrementDownloads bump a counter by exactly 1
	// as a single atomic statement. They return sql.ErrNoRows when the
	// document does not exist.
	IncrementViews(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, id string) error
}

// ListQuery holds the listing parameters: 1-indexed page, page size,
// category filter (empty or CategoryAll disables it), case-insensitive
// search term, and sort key.
type ListQuery struct {
	Page     int
	PerPage  int
	Category string
	Search   string
	SortBy   string
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
