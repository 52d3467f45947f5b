package usecase

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/kirillkom/docstream/internal/core/domain"
	"github.com/kirillkom/docstream/internal/core/ports"
)

// OutputShape selects the representation requested from the pipeline.
type OutputShape string

const (
	ShapeStream OutputShape = "stream"
	ShapeList   OutputShape = "list"
	ShapeText   OutputShape = "text"
)

// ParseOutputShape validates a shape name at the API boundary, before any
// document I/O happens.
func ParseOutputShape(raw string) (OutputShape, error) {
	switch OutputShape(strings.ToLower(strings.TrimSpace(raw))) {
	case ShapeStream:
		return ShapeStream, nil
	case ShapeList:
		return ShapeList, nil
	case ShapeText:
		return ShapeText, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidParameter, "parse output shape",
			fmt.Errorf("unknown shape %q (want stream, list or text)", raw))
	}
}

// ProcessDocumentUseCase drives the full pipeline: assess, select a
// strategy, stream pages, and apply per-page fallback decisions. Pages
// are emitted in the iterator's exact order; the orchestrator never
// buffers more than the page in flight.
type ProcessDocumentUseCase struct {
	engine    ports.DocumentEngine
	assessor  *AssessDocumentUseCase
	streamer  *Streamer
	extractor ports.PageExtractor
	fallback  ports.FallbackExtractor
	logger    *slog.Logger
}

func NewProcessDocumentUseCase(
	engine ports.DocumentEngine,
	assessor *AssessDocumentUseCase,
	streamer *Streamer,
	extractor ports.PageExtractor,
	fallback ports.FallbackExtractor,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		engine:    engine,
		assessor:  assessor,
		streamer:  streamer,
		extractor: extractor,
		fallback:  fallback,
		logger:    logger,
	}
}

// Plan assesses the document and derives its execution strategy without
// extracting any content.
func (uc *ProcessDocumentUseCase) Plan(ctx context.Context, path string) (domain.DocumentProfile, domain.Strategy, error) {
	profile, err := uc.assessor.Assess(ctx, path)
	if err != nil {
		return domain.DocumentProfile{}, domain.Strategy{}, err
	}
	strategy, err := DeriveStrategy(profile)
	if err != nil {
		return domain.DocumentProfile{}, domain.Strategy{}, err
	}
	return profile, strategy, nil
}

// Stream runs the pipeline lazily. The fallback handle document is opened
// once for the whole pass and released with the stream.
func (uc *ProcessDocumentUseCase) Stream(ctx context.Context, path string, opts ports.ProcessOptions) iter.Seq2[domain.PageRecord, error] {
	return func(yield func(domain.PageRecord, error) bool) {
		profile, strategy, err := uc.Plan(ctx, path)
		if err != nil {
			yield(domain.PageRecord{}, err)
			return
		}
		uc.logger.Info("processing document",
			"path", path,
			"strategy", string(strategy.Kind),
			"chunk_size", uc.chunkSize(strategy, opts),
			"estimated_time_seconds", strategy.EstimatedTime,
		)

		doc, err := uc.engine.Open(ctx, path)
		if err != nil {
			yield(domain.PageRecord{}, fmt.Errorf("process %s: %w", path, err))
			return
		}
		defer doc.Close()

		stats := opts.Stats
		if stats == nil {
			stats = domain.NewFallbackStats()
		}

		for record, err := range uc.streamer.Pages(ctx, path, opts.Progress) {
			if err != nil {
				yield(domain.PageRecord{}, err)
				return
			}
			stats.PageSeen()

			record, err = uc.finishPage(ctx, doc, record, profile, opts, stats)
			if err != nil {
				yield(domain.PageRecord{}, err)
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

// finishPage applies the fallback decision and optional extended
// extraction to one baseline record.
func (uc *ProcessDocumentUseCase) finishPage(
	ctx context.Context,
	doc ports.Document,
	record domain.PageRecord,
	profile domain.DocumentProfile,
	opts ports.ProcessOptions,
	stats *domain.FallbackStats,
) (domain.PageRecord, error) {
	page, err := doc.Page(record.PageNumber)
	if err != nil {
		return domain.PageRecord{}, domain.WrapError(domain.ErrPageAccess,
			fmt.Sprintf("load page %d", record.PageNumber), err)
	}

	useFallback, reason := false, "standard"
	if uc.fallback != nil {
		useFallback, reason = uc.fallback.Decide(page, profile.ComplexityScore)
	}

	fallbackText := ""
	applied := false
	switch {
	case useFallback && opts.FallbackCredential != "":
		text, ferr := uc.fallback.Extract(ctx, page, opts.FallbackCredential, opts.FallbackModel)
		if ferr != nil {
			// Recoverable: keep the baseline text and move on.
			uc.logger.Error("fallback extraction failed, keeping baseline text",
				"page", record.PageNumber, "reason", reason, "error", ferr)
		} else {
			fallbackText = text
			applied = true
			stats.FallbackApplied(reason)
		}
	case useFallback:
		uc.logger.Warn("fallback recommended but no credential supplied",
			"page", record.PageNumber, "reason", reason)
	}

	if applied {
		record.Text = fallbackText
	}

	if opts.ExtractImages || opts.ExtractTables {
		full, eerr := uc.extractor.ExtractPage(page, ports.ExtractFlags{
			Images: opts.ExtractImages,
			Tables: opts.ExtractTables,
		})
		if eerr != nil {
			return domain.PageRecord{}, domain.WrapError(domain.ErrPageAccess,
				fmt.Sprintf("extract page %d", record.PageNumber), eerr)
		}
		if applied {
			full.Text = fallbackText
		}
		record = full
	}

	return record, nil
}

// Windows exposes overlapping page windows over baseline records. Batch
// consumers that post-process whole sections use this instead of Stream.
func (uc *ProcessDocumentUseCase) Windows(ctx context.Context, path string, chunkPages, overlap int) iter.Seq2[[]domain.PageRecord, error] {
	return uc.streamer.Windows(ctx, path, chunkPages, overlap)
}

// Collect materializes every page. Memory is bounded only by the
// document itself; callers wanting bounded memory use Stream.
func (uc *ProcessDocumentUseCase) Collect(ctx context.Context, path string, opts ports.ProcessOptions) ([]domain.PageRecord, error) {
	var pages []domain.PageRecord
	for record, err := range uc.Stream(ctx, path, opts) {
		if err != nil {
			return nil, err
		}
		pages = append(pages, record)
	}
	return pages, nil
}

// Text concatenates all page text with blank-line separators.
func (uc *ProcessDocumentUseCase) Text(ctx context.Context, path string, opts ports.ProcessOptions) (string, error) {
	var parts []string
	for record, err := range uc.Stream(ctx, path, opts) {
		if err != nil {
			return "", err
		}
		parts = append(parts, record.Text)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (uc *ProcessDocumentUseCase) chunkSize(strategy domain.Strategy, opts ports.ProcessOptions) int {
	if opts.ChunkSize > 0 {
		return opts.ChunkSize
	}
	return strategy.ChunkSize
}
