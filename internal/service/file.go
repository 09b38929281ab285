package service

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrNotUTF8 = errors.New("text file is not valid UTF-8")

// FileUpload describes an incoming multipart file part.
type FileUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// uploadPrefix is the object-store key prefix for stored attachments.
const uploadPrefix = "uploads/"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a client-supplied filename to a safe basename:
// path components are stripped, unsafe characters collapse to underscores,
// and leading dots are removed so the result cannot traverse or hide.
func SanitizeFilename(name string) string {
	name = path.Base(filepath.ToSlash(name))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, "._")
	if name == "" {
		name = "file"
	}
	return name
}

// uploadKey maps a stored filename to its object-store key.
func uploadKey(filename string) string {
	return uploadPrefix + filename
}

// isTextType reports whether an upload should be inlined as document
// content rather than stored as an object.
func isTextType(contentType string) bool {
	return strings.HasPrefix(contentType, "text/")
}

// readText drains the reader and validates the bytes as UTF-8.
func readText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if !utf8.Valid(b) {
		return "", ErrNotUTF8
	}
	return string(b), nil
}
