package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded  DocumentStatus = "uploaded"
	StatusAssessing DocumentStatus = "assessing"
	StatusAssessed  DocumentStatus = "assessed"
	StatusFailed    DocumentStatus = "failed"
)

// Document is the service-side record of an uploaded file and its
// assessment outcome. Profile and Strategy stay nil until the assessment
// worker has run.
type Document struct {
	ID          string           `json:"id"`
	Filename    string           `json:"filename"`
	MimeType    string           `json:"mime_type"`
	StoragePath string           `json:"storage_path"`
	Status      DocumentStatus   `json:"status"`
	Profile     *DocumentProfile `json:"profile,omitempty"`
	Strategy    *Strategy        `json:"strategy,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
