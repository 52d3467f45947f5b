package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docstream/internal/core/domain"
)

// DocumentEngine opens documents through the external parsing engine.
// The engine is an opaque capability: the core never touches raw file
// structure itself.
type DocumentEngine interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Document is an open handle owned by exactly one iterator or assessment
// pass for its lifetime. Close releases engine resources and must be
// called on every exit path.
type Document interface {
	PageCount() int
	Metadata() map[string]string
	Encrypted() bool
	// Page returns the 1-indexed page or an error wrapping
	// domain.ErrPageAccess when the page cannot be loaded.
	Page(number int) (Page, error)
	Close() error
}

// FontInfo describes a font referenced by a page.
type FontInfo struct {
	Name string
}

// Page exposes the per-page engine capabilities the pipeline consumes.
type Page interface {
	Number() int
	Text() (string, error)
	Fonts() []FontInfo
	Images() []domain.ImageRef
	Blocks() []domain.TextBlock
	Geometry() domain.PageGeometry
	// Snapshot returns an engine-specific byte rendition of the page for
	// transmission to the fallback collaborator.
	Snapshot() ([]byte, error)
}

// ExtractFlags selects the extended content types to pull from a page.
type ExtractFlags struct {
	Images bool
	Tables bool
}

// PageExtractor performs full-page extraction of text, image handles and
// detected tables.
type PageExtractor interface {
	ExtractPage(page Page, flags ExtractFlags) (domain.PageRecord, error)
}

// FallbackExtractor is the secondary, higher-cost extraction path. Decide
// is cheap and local; Extract is a synchronous remote call. Adapters own
// timeout and retry behavior, the core does not.
type FallbackExtractor interface {
	Decide(page Page, complexityScore float64) (bool, string)
	Extract(ctx context.Context, page Page, credential, model string) (string, error)
}

// DocumentRepository persists upload records and assessment results.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveAssessment(ctx context.Context, id string, profile domain.DocumentProfile, strategy domain.Strategy) error
}

// ObjectStorage stores source documents. Path maps a storage key to a
// local filesystem path the engine can open.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Path(key string) string
}

// MessageQueue publishes/consumes assessment jobs.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// ReportWriter renders an assessment report for download.
type ReportWriter interface {
	WriteAssessment(doc *domain.Document, w io.Writer) error
}
