package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docstream/internal/core/domain"
)

const (
	summarySheet = "Assessment"
	issuesSheet  = "Issues"
)

// Exporter renders a document assessment as an xlsx workbook with a
// summary sheet and one row per detected issue.
type Exporter struct{}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) WriteAssessment(doc *domain.Document, w io.Writer) error {
	if doc == nil || doc.Profile == nil {
		return fmt.Errorf("write assessment report: document has no assessment")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := e.writeSummary(f, doc); err != nil {
		return err
	}
	if err := e.writeIssues(f, doc.Profile.Issues); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (e *Exporter) writeSummary(f *excelize.File, doc *domain.Document) error {
	profile := doc.Profile

	rows := [][2]any{
		{"Document", doc.Filename},
		{"Status", string(doc.Status)},
		{"File size (bytes)", profile.FileSize},
		{"Pages", profile.PageCount},
		{"Complexity score", profile.ComplexityScore},
		{"Estimated memory (bytes)", profile.EstimatedMemory},
		{"Recommended strategy", string(profile.RecommendedStrategy)},
		{"Issues", len(profile.Issues)},
	}
	if doc.Strategy != nil {
		rows = append(rows,
			[2]any{"Chunk size", doc.Strategy.ChunkSize},
			[2]any{"Memory limit (bytes)", doc.Strategy.MemoryLimit},
			[2]any{"Estimated time (s)", doc.Strategy.EstimatedTime},
		)
	}

	for i, row := range rows {
		cellA := fmt.Sprintf("A%d", i+1)
		cellB := fmt.Sprintf("B%d", i+1)
		if err := f.SetCellValue(summarySheet, cellA, row[0]); err != nil {
			return fmt.Errorf("set summary cell %s: %w", cellA, err)
		}
		if err := f.SetCellValue(summarySheet, cellB, row[1]); err != nil {
			return fmt.Errorf("set summary cell %s: %w", cellB, err)
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return fmt.Errorf("set summary column width: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 48); err != nil {
		return fmt.Errorf("set summary column width: %w", err)
	}
	return nil
}

func (e *Exporter) writeIssues(f *excelize.File, issues []domain.Issue) error {
	if _, err := f.NewSheet(issuesSheet); err != nil {
		return fmt.Errorf("create issues sheet: %w", err)
	}

	header := []any{"Kind", "Severity", "Page", "Message"}
	for col, v := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("issues header cell: %w", err)
		}
		if err := f.SetCellValue(issuesSheet, cell, v); err != nil {
			return fmt.Errorf("set issues header: %w", err)
		}
	}

	for i, issue := range issues {
		values := []any{string(issue.Kind), string(issue.Severity), issue.PageNumber, issue.Message}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("issues cell: %w", err)
			}
			if err := f.SetCellValue(issuesSheet, cell, v); err != nil {
				return fmt.Errorf("set issues cell %s: %w", cell, err)
			}
		}
	}
	if err := f.SetColWidth(issuesSheet, "D", "D", 64); err != nil {
		return fmt.Errorf("set issues column width: %w", err)
	}
	return nil
}
