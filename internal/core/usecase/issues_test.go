package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/docstream/internal/core/domain"
	"github.com/kirillkom/docstream/internal/core/ports"
)

func newIssueDetector() *AssessDocumentUseCase {
	return NewAssessDocumentUseCase(&fakeEngine{}, nil)
}

func TestDetectIssuesEncryption(t *testing.T) {
	doc := plainDocument(2)
	doc.encrypted = true
	doc.metadata = map[string]string{"encryption": "AES-256"}

	issues := newIssueDetector().DetectIssues(doc)
	if len(issues) == 0 {
		t.Fatalf("expected issues for the encrypted document")
	}
	first := issues[0]
	if first.Kind != domain.IssueEncryption || first.Severity != domain.SeverityCritical {
		t.Fatalf("first issue = %s/%s, want encryption/critical", first.Kind, first.Severity)
	}
	if first.Detail["encryption_method"] != "AES-256" {
		t.Fatalf("encryption method detail = %q", first.Detail["encryption_method"])
	}
}

func TestDetectIssuesCorruptionProbe(t *testing.T) {
	doc := plainDocument(5)
	doc.pageErrs = map[int]error{5: errors.New("xref entry truncated")}

	issues := newIssueDetector().DetectIssues(doc)

	var critical int
	for _, issue := range issues {
		if issue.Kind == domain.IssueCorruption && issue.Severity == domain.SeverityCritical {
			critical++
		}
	}
	if critical != 1 {
		t.Fatalf("critical corruption issues = %d, want 1", critical)
	}
}

func TestDetectIssuesToleratesFailingPages(t *testing.T) {
	doc := plainDocument(4)
	doc.pageErrs = map[int]error{2: errors.New("bad stream"), 3: errors.New("bad stream")}

	issues := newIssueDetector().DetectIssues(doc)

	pages := map[int]bool{}
	for _, issue := range issues {
		if issue.Kind == domain.IssueCorruption && issue.Severity == domain.SeverityHigh {
			pages[issue.PageNumber] = true
		}
	}
	if !pages[2] || !pages[3] {
		t.Fatalf("expected per page corruption issues for pages 2 and 3, got %v", pages)
	}
}

func TestDetectIssuesMissingFonts(t *testing.T) {
	doc := plainDocument(1)
	doc.pages = map[int]*fakePage{1: {
		number: 1,
		text:   "ok",
		fonts: []ports.FontInfo{
			{Name: "Helvetica"},
			{Name: ""},
			{Name: "InvalidFont-3"},
		},
	}}

	issues := newIssueDetector().DetectIssues(doc)

	var fonts int
	for _, issue := range issues {
		if issue.Kind == domain.IssueMissingFonts {
			fonts++
			if issue.Severity != domain.SeverityMedium {
				t.Fatalf("font issue severity = %s, want medium", issue.Severity)
			}
		}
	}
	if fonts != 2 {
		t.Fatalf("font issues = %d, want 2", fonts)
	}
}

func TestDetectIssuesExtractionFailure(t *testing.T) {
	doc := plainDocument(1)
	doc.pages = map[int]*fakePage{1: {number: 1, textErr: errors.New("cmap missing")}}

	issues := newIssueDetector().DetectIssues(doc)

	var found bool
	for _, issue := range issues {
		if issue.Kind == domain.IssueExtraction && issue.PageNumber == 1 {
			found = true
			if issue.Severity != domain.SeverityHigh {
				t.Fatalf("extraction issue severity = %s, want high", issue.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected an extraction issue, got %v", issues)
	}
}

func TestDetectIssuesEncodingDensity(t *testing.T) {
	noisy := strings.Repeat("a", 8) + "��" // 2 of 10 runes
	clean := strings.Repeat("a", 18) + "�" // 1 of 19 runes

	doc := plainDocument(2)
	doc.pages = map[int]*fakePage{
		1: {number: 1, text: noisy},
		2: {number: 2, text: clean},
	}

	issues := newIssueDetector().DetectIssues(doc)

	encoding := map[int]bool{}
	for _, issue := range issues {
		if issue.Kind == domain.IssueEncoding {
			encoding[issue.PageNumber] = true
		}
	}
	if !encoding[1] {
		t.Fatalf("expected an encoding issue on page 1")
	}
	if encoding[2] {
		t.Fatalf("unexpected encoding issue on page 2, ratio is below the threshold")
	}
}

func TestReplacementCharRatio(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"abcd", 0},
		{"��", 1},
		{"ab��", 0.5},
	}
	for _, tc := range cases {
		if got := replacementCharRatio(tc.text); got != tc.want {
			t.Fatalf("replacementCharRatio(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
