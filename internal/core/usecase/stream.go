package usecase

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/kirillkom/docstream/internal/core/domain"
	"github.com/kirillkom/docstream/internal/core/ports"
)

// Streamer delivers pages under bounded memory. Each stream invocation
// opens its own document handle and releases it on every exit path:
// exhaustion, early break, or error. Unlike assessment, a page failure
// mid-stream is fatal; silently skipping pages during production
// iteration is never acceptable.
type Streamer struct {
	engine ports.DocumentEngine
	logger *slog.Logger
}

func NewStreamer(engine ports.DocumentEngine, logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Streamer{engine: engine, logger: logger}
}

// Pages yields one PageRecord per step with page numbers strictly
// increasing from 1. The progress callback runs after each page; a
// panicking callback is contained and never aborts the stream.
func (s *Streamer) Pages(ctx context.Context, path string, progress func(current, total int)) iter.Seq2[domain.PageRecord, error] {
	return func(yield func(domain.PageRecord, error) bool) {
		doc, err := s.engine.Open(ctx, path)
		if err != nil {
			yield(domain.PageRecord{}, fmt.Errorf("stream %s: %w", path, err))
			return
		}
		defer doc.Close()

		total := doc.PageCount()
		for n := 1; n <= total; n++ {
			record, err := baselineRecord(doc, n)
			if err != nil {
				yield(domain.PageRecord{}, err)
				return
			}
			s.notify(progress, n, total)
			if !yield(record, nil) {
				return
			}
		}
	}
}

// Windows yields overlapping multi-page windows. The window start
// advances by chunkPages minus overlap, the final window is truncated
// to the remaining pages, and the last overlap pages of each window
// repeat as the first pages of the next so consumers keep boundary
// context. Parameters are validated before the document is opened.
func (s *Streamer) Windows(ctx context.Context, path string, chunkPages, overlap int) iter.Seq2[[]domain.PageRecord, error] {
	return func(yield func([]domain.PageRecord, error) bool) {
		if chunkPages <= 0 {
			yield(nil, domain.WrapError(domain.ErrInvalidParameter, "window stream",
				fmt.Errorf("chunk_pages must be positive, got %d", chunkPages)))
			return
		}
		if overlap < 0 || overlap >= chunkPages {
			yield(nil, domain.WrapError(domain.ErrInvalidParameter, "window stream",
				fmt.Errorf("overlap (%d) must be in [0, chunk_pages) with chunk_pages=%d", overlap, chunkPages)))
			return
		}

		doc, err := s.engine.Open(ctx, path)
		if err != nil {
			yield(nil, fmt.Errorf("stream %s: %w", path, err))
			return
		}
		defer doc.Close()

		total := doc.PageCount()
		step := chunkPages - overlap

		for start := 0; start < total; start += step {
			end := start + chunkPages
			if end > total {
				end = total
			}
			window := make([]domain.PageRecord, 0, end-start)
			for n := start + 1; n <= end; n++ {
				record, err := baselineRecord(doc, n)
				if err != nil {
					yield(nil, err)
					return
				}
				window = append(window, record)
			}
			if !yield(window, nil) {
				return
			}
		}
	}
}

// baselineRecord extracts the standard per-page content: text, image
// handles, and geometry metadata.
func baselineRecord(doc ports.Document, pageNumber int) (domain.PageRecord, error) {
	page, err := doc.Page(pageNumber)
	if err != nil {
		return domain.PageRecord{}, domain.WrapError(domain.ErrPageAccess,
			fmt.Sprintf("load page %d", pageNumber), err)
	}

	text, err := page.Text()
	if err != nil {
		return domain.PageRecord{}, domain.WrapError(domain.ErrPageAccess,
			fmt.Sprintf("extract page %d text", pageNumber), err)
	}

	geo := page.Geometry()
	return domain.PageRecord{
		PageNumber: pageNumber,
		Text:       text,
		Images:     page.Images(),
		Metadata: map[string]any{
			"width":     geo.Width,
			"height":    geo.Height,
			"rotation":  geo.Rotation,
			"media_box": geo.MediaBox,
		},
	}, nil
}

func (s *Streamer) notify(progress func(current, total int), current, total int) {
	if progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("progress callback panicked", "page", current, "panic", r)
		}
	}()
	progress(current, total)
}
