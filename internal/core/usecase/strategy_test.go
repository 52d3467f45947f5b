package usecase

import (
	"testing"

	"github.com/kirillkom/docstream/internal/core/domain"
)

func TestRecommendStrategyCriticalIssueWinsRegardlessOfSize(t *testing.T) {
	issues := []domain.Issue{{
		Kind:     domain.IssueEncryption,
		Severity: domain.SeverityCritical,
		Message:  "document is encrypted",
	}}
	got := RecommendStrategy(1*mb, 5, 10, issues)
	if got != domain.StrategyStreamPages {
		t.Fatalf("strategy = %s, want stream_pages despite tiny simple file", got)
	}
}

func TestRecommendStrategySmallSimpleFullLoad(t *testing.T) {
	got := RecommendStrategy(5*mb, 20, 30, nil)
	if got != domain.StrategyFullLoad {
		t.Fatalf("strategy = %s, want full_load", got)
	}
}

func TestRecommendStrategyLargeOrComplexChunkBatch(t *testing.T) {
	cases := []struct {
		name       string
		fileSize   int64
		pageCount  int
		complexity float64
	}{
		{"large file", 150 * mb, 500, 50},
		{"high complexity", 20 * mb, 100, 80},
		{"many pages", 30 * mb, 600, 40},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RecommendStrategy(tc.fileSize, tc.pageCount, tc.complexity, nil)
			if got != domain.StrategyChunkBatch {
				t.Fatalf("strategy = %s, want chunk_batch", got)
			}
		})
	}
}

func TestRecommendStrategyDefaultStreams(t *testing.T) {
	got := RecommendStrategy(50*mb, 200, 60, nil)
	if got != domain.StrategyStreamPages {
		t.Fatalf("strategy = %s, want stream_pages", got)
	}
}

func TestDeriveStrategyFullLoadScenario(t *testing.T) {
	profile := domain.DocumentProfile{
		FileSize:            5 * mb,
		PageCount:           20,
		ComplexityScore:     30,
		EstimatedMemory:     EstimateMemory(5*mb, 20).RecommendedMemory,
		RecommendedStrategy: domain.StrategyFullLoad,
	}
	strategy, err := DeriveStrategy(profile)
	if err != nil {
		t.Fatalf("DeriveStrategy() error = %v", err)
	}
	if strategy.Kind != domain.StrategyFullLoad {
		t.Fatalf("kind = %s, want full_load", strategy.Kind)
	}
	if strategy.ChunkSize != 20 {
		t.Fatalf("chunk size = %d, want 20 (all pages)", strategy.ChunkSize)
	}
	if strategy.MemoryLimit != profile.EstimatedMemory*2 {
		t.Fatalf("memory limit = %d, want doubled recommendation", strategy.MemoryLimit)
	}
	if strategy.EstimatedTime != 2.0 {
		t.Fatalf("estimated time = %v, want 2.0", strategy.EstimatedTime)
	}
}

func TestDeriveStrategyFullLoadFloorsEstimatedTime(t *testing.T) {
	profile := domain.DocumentProfile{
		PageCount:           5,
		EstimatedMemory:     10 * mb,
		RecommendedStrategy: domain.StrategyFullLoad,
	}
	strategy, err := DeriveStrategy(profile)
	if err != nil {
		t.Fatalf("DeriveStrategy() error = %v", err)
	}
	if strategy.EstimatedTime != 1.0 {
		t.Fatalf("estimated time = %v, want floor of 1.0", strategy.EstimatedTime)
	}
}

func TestDeriveStrategyChunkBatchScenario(t *testing.T) {
	profile := domain.DocumentProfile{
		FileSize:            150 * mb,
		PageCount:           500,
		ComplexityScore:     50,
		EstimatedMemory:     EstimateMemory(150*mb, 500).RecommendedMemory,
		RecommendedStrategy: RecommendStrategy(150*mb, 500, 50, nil),
	}
	strategy, err := DeriveStrategy(profile)
	if err != nil {
		t.Fatalf("DeriveStrategy() error = %v", err)
	}
	if strategy.Kind != domain.StrategyChunkBatch {
		t.Fatalf("kind = %s, want chunk_batch", strategy.Kind)
	}
	if strategy.ChunkSize != 10 {
		t.Fatalf("chunk size = %d, want 10", strategy.ChunkSize)
	}
	if strategy.EstimatedTime != 150.0 {
		t.Fatalf("estimated time = %v, want 150.0", strategy.EstimatedTime)
	}
	wantLimit := profile.EstimatedMemory / 500 * 15
	if strategy.MemoryLimit != wantLimit {
		t.Fatalf("memory limit = %d, want %d", strategy.MemoryLimit, wantLimit)
	}
}

func TestDeriveStrategyChunkBatchShrinksForComplexDocuments(t *testing.T) {
	profile := domain.DocumentProfile{
		FileSize:            200 * mb,
		PageCount:           800,
		ComplexityScore:     85,
		EstimatedMemory:     EstimateMemory(200*mb, 800).RecommendedMemory,
		RecommendedStrategy: domain.StrategyChunkBatch,
	}
	strategy, err := DeriveStrategy(profile)
	if err != nil {
		t.Fatalf("DeriveStrategy() error = %v", err)
	}
	if strategy.ChunkSize != 5 {
		t.Fatalf("chunk size = %d, want 5 for complex document", strategy.ChunkSize)
	}
}

func TestDeriveStrategyStreamPages(t *testing.T) {
	profile := domain.DocumentProfile{
		FileSize:            50 * mb,
		PageCount:           200,
		EstimatedMemory:     EstimateMemory(50*mb, 200).RecommendedMemory,
		RecommendedStrategy: domain.StrategyStreamPages,
	}
	strategy, err := DeriveStrategy(profile)
	if err != nil {
		t.Fatalf("DeriveStrategy() error = %v", err)
	}
	if strategy.ChunkSize != 1 {
		t.Fatalf("chunk size = %d, want 1", strategy.ChunkSize)
	}
	if strategy.MemoryLimit != profile.EstimatedMemory/200*5 {
		t.Fatalf("memory limit = %d, want five pages of budget", strategy.MemoryLimit)
	}
	if strategy.EstimatedTime != 100.0 {
		t.Fatalf("estimated time = %v, want 100.0", strategy.EstimatedTime)
	}
}

func TestDeriveStrategyRejectsUnknownKind(t *testing.T) {
	_, err := DeriveStrategy(domain.DocumentProfile{RecommendedStrategy: "turbo"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}
