package model

// Document represents a shared document in the system.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
//
// Author and Grade are snapshots of the creating user taken at creation
// time, not live references. At most one of Content and Filename is
// populated: uploading a binary file clears any inline text content.
type Document struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
	Author      string `json:"author,omitempty"`
	Grade       string `json:"grade,omitempty"`
	Filename    string `json:"filename,omitempty"`
	CreatedAt   Date   `json:"created_at"`
	Views       int64  `json:"views"`
	Downloads   int64  `json:"downloads"`
}

// DefaultCategory is assigned when a document is created without an explicit category.
const DefaultCategory = "general"
