package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/docstream/internal/core/domain"
	"github.com/kirillkom/docstream/internal/core/ports"
)

// replacementCharThreshold is the fraction of U+FFFD runes above which a
// page is flagged for encoding problems.
const replacementCharThreshold = 0.1

// DetectIssues scans an open document for processing hazards. Document
// level checks run first, then every page in order. A failing page is
// recorded and the scan moves on: assessment tolerates partial failure,
// unlike production streaming.
func (uc *AssessDocumentUseCase) DetectIssues(doc ports.Document) []domain.Issue {
	var issues []domain.Issue

	if doc.Encrypted() {
		issues = append(issues, domain.Issue{
			Kind:     domain.IssueEncryption,
			Severity: domain.SeverityCritical,
			Message:  "document is encrypted and may require a password",
			Detail:   map[string]string{"encryption_method": doc.Metadata()["encryption"]},
		})
	}

	if issue, corrupted := probeCorruption(doc); corrupted {
		issues = append(issues, issue)
	}

	for n := 1; n <= doc.PageCount(); n++ {
		page, err := doc.Page(n)
		if err != nil {
			issues = append(issues, domain.Issue{
				Kind:       domain.IssueCorruption,
				Severity:   domain.SeverityHigh,
				Message:    fmt.Sprintf("cannot access page %d: %v", n, err),
				PageNumber: n,
				Detail:     map[string]string{"error": err.Error()},
			})
			continue
		}
		issues = append(issues, scanPage(page, n)...)
	}

	return issues
}

// probeCorruption checks whether the first and last pages load at all.
// Failure here usually means a truncated or damaged cross-reference
// structure rather than a single bad page.
func probeCorruption(doc ports.Document) (domain.Issue, bool) {
	count := doc.PageCount()
	if count == 0 {
		return domain.Issue{}, false
	}
	probe := []int{1}
	if count > 1 {
		probe = append(probe, count)
	}
	for _, n := range probe {
		if _, err := doc.Page(n); err != nil {
			return domain.Issue{
				Kind:     domain.IssueCorruption,
				Severity: domain.SeverityCritical,
				Message:  fmt.Sprintf("document may be corrupted: %v", err),
				Detail:   map[string]string{"error": err.Error()},
			}, true
		}
	}
	return domain.Issue{}, false
}

func scanPage(page ports.Page, pageNumber int) []domain.Issue {
	var issues []domain.Issue

	for _, font := range page.Fonts() {
		if font.Name == "" || strings.HasPrefix(font.Name, "Invalid") {
			issues = append(issues, domain.Issue{
				Kind:       domain.IssueMissingFonts,
				Severity:   domain.SeverityMedium,
				Message:    fmt.Sprintf("missing or invalid font on page %d", pageNumber),
				PageNumber: pageNumber,
				Detail:     map[string]string{"font": font.Name},
			})
		}
	}

	text, err := page.Text()
	if err != nil {
		issues = append(issues, domain.Issue{
			Kind:       domain.IssueExtraction,
			Severity:   domain.SeverityHigh,
			Message:    fmt.Sprintf("text extraction failed on page %d: %v", pageNumber, err),
			PageNumber: pageNumber,
			Detail:     map[string]string{"error": err.Error()},
		})
		return issues
	}

	if ratio := replacementCharRatio(text); ratio > replacementCharThreshold {
		issues = append(issues, domain.Issue{
			Kind:       domain.IssueEncoding,
			Severity:   domain.SeverityMedium,
			Message:    fmt.Sprintf("possible encoding issues on page %d", pageNumber),
			PageNumber: pageNumber,
			Detail:     map[string]string{"replacement_char_percent": fmt.Sprintf("%.1f", ratio*100)},
		})
	}

	return issues
}

func replacementCharRatio(text string) float64 {
	if text == "" {
		return 0
	}
	total, bad := 0, 0
	for _, r := range text {
		total++
		if r == '�' {
			bad++
		}
	}
	return float64(bad) / float64(total)
}
