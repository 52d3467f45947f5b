package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kirillkom/docstream/internal/core/domain"
	"github.com/kirillkom/docstream/internal/core/ports"
)

const defaultSamplePages = 3

// AssessDocumentUseCase profiles a document before any content is
// delivered: size, page count, metadata, issues, complexity, and the
// recommended execution strategy.
type AssessDocumentUseCase struct {
	engine      ports.DocumentEngine
	samplePages int
	logger      *slog.Logger
}

func NewAssessDocumentUseCase(engine ports.DocumentEngine, logger *slog.Logger) *AssessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssessDocumentUseCase{
		engine:      engine,
		samplePages: defaultSamplePages,
		logger:      logger,
	}
}

// WithSamplePages adjusts how many leading pages the complexity scorer
// samples. The default of 3 trades accuracy for constant assessment cost
// on 1000+ page documents.
func (uc *AssessDocumentUseCase) WithSamplePages(n int) *AssessDocumentUseCase {
	if n > 0 {
		uc.samplePages = n
	}
	return uc
}

func (uc *AssessDocumentUseCase) Assess(ctx context.Context, path string) (domain.DocumentProfile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.DocumentProfile{}, domain.WrapError(domain.ErrNotFound, "assess "+path, err)
	}
	fileSize := info.Size()

	doc, err := uc.engine.Open(ctx, path)
	if err != nil {
		return domain.DocumentProfile{}, fmt.Errorf("assess %s: %w", path, err)
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	metadata := doc.Metadata()

	complexity := uc.complexityScore(doc, fileSize, pageCount)
	issues := uc.DetectIssues(doc)
	estimate := EstimateMemory(fileSize, pageCount)
	recommended := RecommendStrategy(fileSize, pageCount, complexity, issues)

	uc.logger.Info("document assessed",
		"path", path,
		"file_size", fileSize,
		"page_count", pageCount,
		"complexity_score", complexity,
		"issues", len(issues),
		"strategy", string(recommended),
	)

	return domain.DocumentProfile{
		FileSize:            fileSize,
		PageCount:           pageCount,
		ComplexityScore:     complexity,
		EstimatedMemory:     estimate.RecommendedMemory,
		RecommendedStrategy: recommended,
		Issues:              issues,
		Metadata:            metadata,
	}, nil
}

// complexityScore is a capped weighted sum over cheap document signals.
// Sampling is limited to the first few pages; an inaccessible sampled
// page counts toward complexity instead of failing the assessment.
func (uc *AssessDocumentUseCase) complexityScore(doc ports.Document, fileSize int64, pageCount int) float64 {
	score := 0.0

	sizePerPage := int64(0)
	if pageCount > 0 {
		sizePerPage = fileSize / int64(pageCount)
	}
	switch {
	case sizePerPage > 500*kb:
		score += 30
	case sizePerPage > 200*kb:
		score += 20
	case sizePerPage > 100*kb:
		score += 10
	}

	switch {
	case pageCount > 1000:
		score += 20
	case pageCount > 500:
		score += 15
	case pageCount > 100:
		score += 10
	case pageCount > 50:
		score += 5
	}

	sampled := uc.samplePages
	if pageCount < sampled {
		sampled = pageCount
	}
	totalImages, totalFonts := 0, 0
	for n := 1; n <= sampled; n++ {
		page, err := doc.Page(n)
		if err != nil {
			// Unreadable early pages usually mean trouble ahead.
			score += 10
			continue
		}
		totalImages += len(page.Images())
		totalFonts += len(page.Fonts())
	}
	if sampled > 0 {
		avgImages := float64(totalImages) / float64(sampled)
		avgFonts := float64(totalFonts) / float64(sampled)
		switch {
		case avgImages > 5:
			score += 15
		case avgImages > 2:
			score += 10
		case avgImages > 0:
			score += 5
		}
		switch {
		case avgFonts > 10:
			score += 15
		case avgFonts > 5:
			score += 10
		case avgFonts > 2:
			score += 5
		}
	}

	metadata := doc.Metadata()
	if doc.Encrypted() {
		score += 10
	} else if metadata["encryption"] != "" {
		score += 5
	}

	format := metadata["format"]
	switch {
	case strings.Contains(format, "1.7"), strings.Contains(format, "2.0"):
		score += 10
	case strings.Contains(format, "1.5"), strings.Contains(format, "1.6"):
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
