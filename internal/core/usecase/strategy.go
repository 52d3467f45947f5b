package usecase

import (
	"fmt"

	"github.com/kirillkom/docstream/internal/core/domain"
)

const (
	sizeFullLoadMax  = 10 * mb
	sizeChunkBatch   = 100 * mb
	complexityLow    = 50.0
	complexityHigh   = 70.0
	pageCountChunked = 500
)

// RecommendStrategy applies the selection cascade: critical issues force
// careful page-by-page streaming regardless of everything else; small
// simple files load whole; large or complex files batch; the rest stream.
func RecommendStrategy(fileSize int64, pageCount int, complexityScore float64, issues []domain.Issue) domain.StrategyKind {
	for _, issue := range issues {
		if issue.Severity == domain.SeverityCritical {
			return domain.StrategyStreamPages
		}
	}
	if fileSize < sizeFullLoadMax && complexityScore < complexityLow {
		return domain.StrategyFullLoad
	}
	if fileSize >= sizeChunkBatch || complexityScore > complexityHigh || pageCount > pageCountChunked {
		return domain.StrategyChunkBatch
	}
	return domain.StrategyStreamPages
}

// DeriveStrategy turns a profile's recommendation into concrete execution
// parameters. Pure and reproducible for the same profile.
func DeriveStrategy(profile domain.DocumentProfile) (domain.Strategy, error) {
	pages := int64(profile.PageCount)
	if pages < 1 {
		pages = 1
	}

	switch profile.RecommendedStrategy {
	case domain.StrategyFullLoad:
		estimated := float64(profile.PageCount) / 10.0
		if estimated < 1.0 {
			estimated = 1.0
		}
		return domain.Strategy{
			Kind:          domain.StrategyFullLoad,
			ChunkSize:     profile.PageCount,
			MemoryLimit:   profile.EstimatedMemory * 2,
			EstimatedTime: estimated,
		}, nil

	case domain.StrategyStreamPages:
		return domain.Strategy{
			Kind:          domain.StrategyStreamPages,
			ChunkSize:     1,
			MemoryLimit:   profile.EstimatedMemory / pages * 5,
			EstimatedTime: float64(profile.PageCount) * 0.5,
		}, nil

	case domain.StrategyChunkBatch:
		chunkSize := 10
		if profile.ComplexityScore > complexityHigh {
			chunkSize = 5
		}
		return domain.Strategy{
			Kind:          domain.StrategyChunkBatch,
			ChunkSize:     chunkSize,
			MemoryLimit:   profile.EstimatedMemory / pages * int64(chunkSize+5),
			EstimatedTime: float64(profile.PageCount) * 0.3,
		}, nil

	default:
		return domain.Strategy{}, domain.WrapError(
			domain.ErrInvalidParameter,
			"derive strategy",
			fmt.Errorf("unknown strategy kind %q", profile.RecommendedStrategy),
		)
	}
}
