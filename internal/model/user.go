package model

// User represents a registered account.
// This is a pure domain model with no database-specific dependencies or tags.
// The password digest is never serialized to clients.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Grade        string `json:"grade,omitempty"`
	CreatedAt    Date   `json:"created_at"`
}
