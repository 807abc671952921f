package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID               string    `json:"id"`
	FileName         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	Size             int64     `json:"size"`
	FileType         string    `json:"file_type"`
	MimeType         string    `json:"mime_type"`
	Status           string    `json:"status"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// ListResponse is one page of a document listing.
type ListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
	Offset    int                `json:"offset"`
	Limit     int                `json:"limit"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:               doc.ID,
		FileName:         doc.FileName,
		OriginalFilename: doc.OriginalFilename,
		Size:             doc.SizeBytes,
		FileType:         doc.FileType,
		MimeType:         doc.MimeType,
		Status:           doc.Status,
		UploadedAt:       doc.UploadedAt,
	}
}
