package ports

import (
	"context"
	"io"
	"iter"

	"github.com/kirillkom/docstream/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentAssessor is the inbound contract for asynchronous assessment.
type DocumentAssessor interface {
	AssessByID(ctx context.Context, documentID string) error
}

// ProcessOptions tune one pipeline run. The zero value streams baseline
// text only with the automatically selected strategy.
type ProcessOptions struct {
	ExtractImages bool
	ExtractTables bool
	// ChunkSize overrides the strategy-derived chunk size when > 0.
	ChunkSize int
	// FallbackCredential enables the fallback collaborator; without it
	// recommended fallbacks are logged and skipped.
	FallbackCredential string
	FallbackModel      string
	Progress           func(current, total int)
	// Stats receives fallback usage counters; nil means the run keeps a
	// private instance.
	Stats *domain.FallbackStats
}

// DocumentPipeline is the inbound contract for paced content delivery.
type DocumentPipeline interface {
	// Plan assesses the document and derives its strategy without
	// performing any extraction.
	Plan(ctx context.Context, path string) (domain.DocumentProfile, domain.Strategy, error)
	// Stream yields pages lazily in strict page order.
	Stream(ctx context.Context, path string, opts ProcessOptions) iter.Seq2[domain.PageRecord, error]
	// Windows yields overlapping page windows for batch consumers.
	Windows(ctx context.Context, path string, chunkPages, overlap int) iter.Seq2[[]domain.PageRecord, error]
	// Collect materializes the full page list.
	Collect(ctx context.Context, path string, opts ProcessOptions) ([]domain.PageRecord, error)
	// Text concatenates all page text.
	Text(ctx context.Context, path string, opts ProcessOptions) (string, error)
}
