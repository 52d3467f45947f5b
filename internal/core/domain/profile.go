package domain

type IssueKind string

const (
	IssueEncryption   IssueKind = "encryption"
	IssueCorruption   IssueKind = "corruption"
	IssueMissingFonts IssueKind = "missing_fonts"
	IssueEncoding     IssueKind = "encoding"
	IssueExtraction   IssueKind = "extraction"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Issue is a single problem detected during assessment. PageNumber is
// 1-indexed; zero means the issue applies to the whole document.
type Issue struct {
	Kind       IssueKind         `json:"kind"`
	Severity   Severity          `json:"severity"`
	Message    string            `json:"message"`
	PageNumber int               `json:"page_number,omitempty"`
	Detail     map[string]string `json:"detail,omitempty"`
}

// MemoryEstimate holds RAM requirements derived purely from file size and
// page count. MinMemory < RecommendedMemory < PeakMemory always holds for
// page counts >= 1.
type MemoryEstimate struct {
	MinMemory         int64 `json:"min_memory"`
	RecommendedMemory int64 `json:"recommended_memory"`
	PeakMemory        int64 `json:"peak_memory"`
	PerPageAvg        int64 `json:"per_page_avg"`
}

type StrategyKind string

const (
	StrategyFullLoad    StrategyKind = "full_load"
	StrategyStreamPages StrategyKind = "stream_pages"
	StrategyChunkBatch  StrategyKind = "chunk_batch"
)

func (k StrategyKind) Valid() bool {
	switch k {
	case StrategyFullLoad, StrategyStreamPages, StrategyChunkBatch:
		return true
	default:
		return false
	}
}

// Strategy is the concrete execution plan for a document: how many pages
// per step, the memory budget, and a rough wall-clock estimate.
type Strategy struct {
	Kind          StrategyKind `json:"strategy_type"`
	ChunkSize     int          `json:"chunk_size"`
	MemoryLimit   int64        `json:"memory_limit"`
	EstimatedTime float64      `json:"estimated_time_seconds"`
}

// DocumentProfile is the computed characterization of a document produced
// by one assessment call. Immutable once returned.
type DocumentProfile struct {
	FileSize            int64             `json:"file_size"`
	PageCount           int               `json:"page_count"`
	ComplexityScore     float64           `json:"complexity_score"`
	EstimatedMemory     int64             `json:"estimated_memory"`
	RecommendedStrategy StrategyKind      `json:"recommended_strategy"`
	Issues              []Issue           `json:"issues"`
	Metadata            map[string]string `json:"metadata"`
}

func (p DocumentProfile) HasCriticalIssue() bool {
	for _, issue := range p.Issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
