// Package model contains simple struct definitions shared across packages.
package model

import (
	"time"
)

// Document represents one completed translation job: both artifact keys, the
// language pair, and the owning identity. Keys are set once at creation and
// never change; FolderID is the only mutable field.
type Document struct {
	ID            string    `json:"id"`
	Owner         string    `json:"-"`
	FileName      string    `json:"fileName"`
	OriginalKey   string    `json:"originalKey"`
	TranslatedKey string    `json:"translatedKey"`
	SourceLang    string    `json:"sourceLanguage"`
	TargetLang    string    `json:"targetLanguage"`
	// FolderID is nil while the document is unassigned.
	FolderID  *string   `json:"folderId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Folder is a named, owner-scoped grouping of documents. Documents reference
// folders; they are never owned by them.
type Folder struct {
	ID        string    `json:"id"`
	Owner     string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// User holds a registered account. PasswordHash is a bcrypt hash and is
// never serialized.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CompanyName  string    `json:"companyName,omitempty"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
