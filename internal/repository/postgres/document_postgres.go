package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"docshare/internal/model"
	"docshare/internal/repository"
)

const docColumns = "id, category, title, description, content, author, grade, filename, created_at, views, downloads"

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	if err := row.Scan(
		&d.ID,
		&d.Category,
		&d.Title,
		&d.Description,
		&d.Content,
		&d.Author,
		&d.Grade,
		&d.Filename,
		&d.CreatedAt,
		&d.Views,
		&d.Downloads,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (id, category, title, description, content, author, grade, filename, created_at, views, downloads)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + docColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Category,
		doc.Title,
		doc.Description,
		doc.Content,
		doc.Author,
		doc.Grade,
		doc.Filename,
		doc.CreatedAt,
		doc.Views,
		doc.Downloads,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + docColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// listFilter translates the category and search parameters into a WHERE
// clause with positional arguments. An empty category or the CategoryAll
// sentinel disables the category filter; the search term matches
// case-insensitively against title, author, or description.
func listFilter(q repository.ListQuery) (string, []any) {
	var conds []string
	var args []any

	if q.Category != "" && q.Category != repository.CategoryAll {
		args = append(args, q.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d OR description ILIKE $%d)", n, n, n))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderClause maps a sort key to a deterministic ORDER BY. Unrecognized
// keys fall back to newest first. The id tiebreak keeps pagination stable
// across rows with equal sort values.
func orderClause(sortBy string) string {
	switch sortBy {
	case repository.SortViews:
		return " ORDER BY views DESC, id DESC"
	case repository.SortDownloads:
		return " ORDER BY downloads DESC, id DESC"
	case repository.SortTitle:
		return " ORDER BY title ASC, id DESC"
	default:
		return " ORDER BY created_at DESC, id DESC"
	}
}

// List returns a filtered, sorted page of documents and the total count
// of rows matching the same filter. Out-of-range pages yield an empty
// item list without error.
func (r *DocumentPostgres) List(ctx context.Context, q repository.ListQuery) (*repository.PageResult[model.Document], error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 20
	}

	where, args := listFilter(q)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := `SELECT ` + docColumns + ` FROM documents` + where + orderClause(q.SortBy) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// Update replaces the mutable fields of an existing row and returns the
// stored record. Counters and created_at are not touched here.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		UPDATE documents
		SET category = $2, title = $3, description = $4, content = $5, filename = $6
		WHERE id = $1
		RETURNING ` + docColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Category,
		doc.Title,
		doc.Description,
		doc.Content,
		doc.Filename,
	)
	return scanDocument(row)
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// IncrementViews bumps the view counter by 1 in a single statement so
// concurrent increments cannot lose updates.
func (r *DocumentPostgres) IncrementViews(ctx context.Context, id string) error {
	return r.increment(ctx, "views", id)
}

// IncrementDownloads bumps the download counter by 1 in a single statement.
func (r *DocumentPostgres) IncrementDownloads(ctx context.Context, id string) error {
	return r.increment(ctx, "downloads", id)
}

func (r *DocumentPostgres) increment(ctx context.Context, column, id string) error {
	q := fmt.Sprintf(`UPDATE documents SET %s = %s + 1 WHERE id = $1`, column, column)
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
