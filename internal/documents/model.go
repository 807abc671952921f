package documents

import "time"

// Declared file types.
const (
	FileTypePDF   = "pdf"
	FileTypeImage = "image"
)

// Lifecycle states.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Document represents an uploaded bill or receipt owned by a user.
type Document struct {
	ID               string
	UserID           string
	FileName         string
	OriginalFilename string
	StorageProvider  string
	StorageKey       string
	MimeType         string
	FileType         string
	SizeBytes        int64
	Status           string
	UploadedAt       time.Time
}

// ListFilter narrows a listing. Zero values match everything.
type ListFilter struct {
	Query    string
	FileType string
	Status   string
	Limit    int
	Offset   int
}

// Page is one slice of a listing with the bounds that produced it.
type Page struct {
	Documents []Document
	Total     int
	Offset    int
	Limit     int
}
