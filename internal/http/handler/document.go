package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docshare/internal/repository"
	"docshare/internal/service"
)

// fileUploadFromHeader opens a multipart file header as a service upload.
// The caller owns closing the returned closer.
func fileUploadFromHeader(fh *multipart.FileHeader) (*service.FileUpload, multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &service.FileUpload{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
	}, f, nil
}

// ListDocuments handles GET /api/documents with page, per_page, category,
// search, and sort_by query parameters.
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := strconv.Atoi(c.Query("page", "1"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		perPage, err := strconv.Atoi(c.Query("per_page", "20"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PER_PAGE", "invalid per_page")
		}

		res, err := docSvc.List(c.UserContext(), repository.ListQuery{
			Page:     page,
			PerPage:  perPage,
			Category: c.Query("category"),
			Search:   c.Query("search"),
			SortBy:   c.Query("sort_by", repository.SortLatest),
		})
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// CreateDocument handles POST /api/documents (multipart form, optional file part).
func CreateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := service.CreateDocumentInput{
			Title:       c.FormValue("title"),
			Category:    c.FormValue("category"),
			Description: c.FormValue("description"),
		}
		if in.Title == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "title is required")
		}

		if fh, err := c.FormFile("file"); err == nil && fh.Filename != "" {
			upload, f, err := fileUploadFromHeader(fh)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			in.File = upload
		}

		doc, err := docSvc.Create(c.UserContext(), currentUser(c), in)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTitleRequired):
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "title is required")
			case errors.Is(err, service.ErrNotUTF8):
				return writeError(c, fiber.StatusBadRequest, "INVALID_TEXT_FILE", "text file must be valid UTF-8")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument handles GET /api/documents/:id.
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		// An id that cannot be a UUID cannot name a document.
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(doc)
	}
}

// UpdateDocument handles PUT /api/documents/:id (multipart form).
// Absent form fields leave the stored values unchanged.
func UpdateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}

		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "multipart form required")
		}

		var patch service.DocumentPatch
		if vs, ok := form.Value["title"]; ok && len(vs) > 0 {
			patch.Title = &vs[0]
		}
		if vs, ok := form.Value["category"]; ok && len(vs) > 0 {
			patch.Category = &vs[0]
		}
		if vs, ok := form.Value["description"]; ok && len(vs) > 0 {
			patch.Description = &vs[0]
		}

		if fh, err := c.FormFile("file"); err == nil && fh.Filename != "" {
			upload, f, err := fileUploadFromHeader(fh)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			patch.File = upload
		}

		doc, err := docSvc.Update(c.UserContext(), currentUser(c), id, patch)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			case errors.Is(err, service.ErrForbidden):
				return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "you are not the author of this document")
			case errors.Is(err, service.ErrNotUTF8):
				return writeError(c, fiber.StatusBadRequest, "INVALID_TEXT_FILE", "text file must be valid UTF-8")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(doc)
	}
}

// DeleteDocument handles DELETE /api/documents/:id.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		if err := docSvc.Delete(c.UserContext(), currentUser(c), id); err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			case errors.Is(err, service.ErrForbidden):
				return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "you are not the author of this document")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// IncrementView handles PUT /api/documents/:id/view.
func IncrementView(docSvc service.DocumentService) fiber.Handler {
	return incrementHandler(docSvc.IncrementViews, "view count incremented")
}

// IncrementDownload handles PUT /api/documents/:id/download.
func IncrementDownload(docSvc service.DocumentService) fiber.Handler {
	return incrementHandler(docSvc.IncrementDownloads, "download count incremented")
}

func incrementHandler(inc func(ctx context.Context, id string) error, msg string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		if err := inc(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"message": msg})
	}
}

// ServeUpload handles GET /uploads/:filename by streaming the stored object.
func ServeUpload(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filename := c.Params("filename")
		rc, info, err := docSvc.OpenUpload(c.UserContext(), filename)
		if err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		return c.SendStream(rc, int(info.Size))
	}
}
