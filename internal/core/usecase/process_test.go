package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kirillkom/docstream/internal/core/domain"
	"github.com/kirillkom/docstream/internal/core/ports"
)

type fakeFallback struct {
	triggerPages map[int]string
	extractErr   error
	extracted    []int
}

func (f *fakeFallback) Decide(page ports.Page, complexity float64) (bool, string) {
	if reason, ok := f.triggerPages[page.Number()]; ok {
		return true, reason
	}
	return false, "standard"
}

func (f *fakeFallback) Extract(ctx context.Context, page ports.Page, credential, model string) (string, error) {
	if f.extractErr != nil {
		return "", f.extractErr
	}
	f.extracted = append(f.extracted, page.Number())
	return fmt.Sprintf("vision text for page %d", page.Number()), nil
}

type fakeExtractor struct {
	tables []domain.Table
	err    error
	calls  int
}

func (f *fakeExtractor) ExtractPage(page ports.Page, flags ports.ExtractFlags) (domain.PageRecord, error) {
	f.calls++
	if f.err != nil {
		return domain.PageRecord{}, f.err
	}
	text, err := page.Text()
	if err != nil {
		return domain.PageRecord{}, err
	}
	record := domain.PageRecord{PageNumber: page.Number(), Text: text}
	if flags.Tables {
		record.Tables = f.tables
	}
	return record, nil
}

func newPipeline(doc *fakeDocument, fallback ports.FallbackExtractor, extractor ports.PageExtractor) *ProcessDocumentUseCase {
	engine := &fakeEngine{doc: doc}
	assessor := NewAssessDocumentUseCase(engine, nil)
	streamer := NewStreamer(engine, nil)
	return NewProcessDocumentUseCase(engine, assessor, streamer, extractor, fallback, nil)
}

func TestPlanReturnsProfileAndStrategy(t *testing.T) {
	uc := newPipeline(plainDocument(20), nil, nil)

	profile, strategy, err := uc.Plan(context.Background(), tmpDocument(t, 5*1024*1024))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if profile.PageCount != 20 {
		t.Fatalf("page count = %d, want 20", profile.PageCount)
	}
	if strategy.Kind != domain.StrategyFullLoad {
		t.Fatalf("strategy = %s, want full_load for a small simple document", strategy.Kind)
	}
}

func TestStreamAppliesFallbackText(t *testing.T) {
	fallback := &fakeFallback{triggerPages: map[int]string{2: "scanned_pdf"}}
	stats := domain.NewFallbackStats()
	uc := newPipeline(plainDocument(3), fallback, nil)

	opts := ports.ProcessOptions{FallbackCredential: "key", FallbackModel: "vision-small", Stats: stats}
	pages, err := uc.Collect(context.Background(), tmpDocument(t, 1024), opts)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(pages))
	}
	if pages[0].Text != "page 1 text" {
		t.Fatalf("page 1 text = %q, want the baseline text", pages[0].Text)
	}
	if pages[1].Text != "vision text for page 2" {
		t.Fatalf("page 2 text = %q, want the fallback text", pages[1].Text)
	}

	usage := stats.Snapshot()
	if usage.TotalPages != 3 || usage.FallbackUsed != 1 {
		t.Fatalf("usage = %+v, want 1 fallback over 3 pages", usage)
	}
	if usage.ByReason["scanned_pdf"] != 1 {
		t.Fatalf("by reason = %v, want scanned_pdf counted once", usage.ByReason)
	}
}

func TestStreamKeepsBaselineWhenFallbackFails(t *testing.T) {
	fallback := &fakeFallback{
		triggerPages: map[int]string{1: "high_complexity"},
		extractErr:   errors.New("service unavailable"),
	}
	stats := domain.NewFallbackStats()
	uc := newPipeline(plainDocument(2), fallback, nil)

	opts := ports.ProcessOptions{FallbackCredential: "key", Stats: stats}
	pages, err := uc.Collect(context.Background(), tmpDocument(t, 1024), opts)
	if err != nil {
		t.Fatalf("Collect() error = %v, fallback failure must be recoverable", err)
	}
	if pages[0].Text != "page 1 text" {
		t.Fatalf("page 1 text = %q, want the baseline kept after the failed fallback", pages[0].Text)
	}
	if usage := stats.Snapshot(); usage.FallbackUsed != 0 {
		t.Fatalf("fallback used = %d, want 0 after a failed extraction", usage.FallbackUsed)
	}
}

func TestStreamSkipsFallbackWithoutCredential(t *testing.T) {
	fallback := &fakeFallback{triggerPages: map[int]string{1: "scanned_pdf"}}
	uc := newPipeline(plainDocument(1), fallback, nil)

	pages, err := uc.Collect(context.Background(), tmpDocument(t, 1024), ports.ProcessOptions{})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if pages[0].Text != "page 1 text" {
		t.Fatalf("page 1 text = %q, want the baseline without a credential", pages[0].Text)
	}
	if len(fallback.extracted) != 0 {
		t.Fatalf("fallback extracted pages %v, want none without a credential", fallback.extracted)
	}
}

func TestStreamExtendedExtractionKeepsFallbackText(t *testing.T) {
	fallback := &fakeFallback{triggerPages: map[int]string{1: "scanned_pdf"}}
	extractor := &fakeExtractor{tables: []domain.Table{{
		Header: []string{"name", "total"},
		Rows:   [][]string{{"a", "1"}},
	}}}
	uc := newPipeline(plainDocument(1), fallback, extractor)

	opts := ports.ProcessOptions{
		FallbackCredential: "key",
		ExtractTables:      true,
	}
	pages, err := uc.Collect(context.Background(), tmpDocument(t, 1024), opts)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if extractor.calls != 1 {
		t.Fatalf("extractor calls = %d, want 1", extractor.calls)
	}
	// Extended extraction rebuilds the record but the fallback text wins.
	if pages[0].Text != "vision text for page 1" {
		t.Fatalf("page text = %q, want the fallback text on the extended record", pages[0].Text)
	}
	if len(pages[0].Tables) != 1 || pages[0].Tables[0].Header[0] != "name" {
		t.Fatalf("tables = %+v, want the detected table carried over", pages[0].Tables)
	}
}

func TestStreamOrderPreserved(t *testing.T) {
	uc := newPipeline(plainDocument(8), nil, nil)

	var order []int
	for record, err := range uc.Stream(context.Background(), tmpDocument(t, 1024), ports.ProcessOptions{}) {
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
		order = append(order, record.PageNumber)
	}
	for i, n := range order {
		if n != i+1 {
			t.Fatalf("page order = %v, want strictly increasing from 1", order)
		}
	}
}

func TestTextJoinsPages(t *testing.T) {
	uc := newPipeline(plainDocument(3), nil, nil)

	text, err := uc.Text(context.Background(), tmpDocument(t, 1024), ports.ProcessOptions{})
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	want := "page 1 text\n\npage 2 text\n\npage 3 text"
	if text != want {
		t.Fatalf("text = %q, want %q", text, want)
	}
	if !strings.Contains(text, "\n\n") {
		t.Fatalf("text missing blank-line separators")
	}
}

func TestParseOutputShape(t *testing.T) {
	for raw, want := range map[string]OutputShape{
		"stream": ShapeStream,
		" List ": ShapeList,
		"TEXT":   ShapeText,
	} {
		got, err := ParseOutputShape(raw)
		if err != nil {
			t.Fatalf("ParseOutputShape(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseOutputShape(%q) = %q, want %q", raw, got, want)
		}
	}

	if _, err := ParseOutputShape("xml"); !domain.IsKind(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for an unknown shape, got %v", err)
	}
}
