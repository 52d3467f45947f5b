package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/docstream/internal/core/domain"
	"github.com/kirillkom/docstream/internal/core/ports"
	"github.com/kirillkom/docstream/internal/core/usecase"
	"github.com/kirillkom/docstream/internal/observability/metrics"
)

type RouterConfig struct {
	RateLimitRPS   int
	RateLimitBurst int
	MaxInFlight    int

	// DefaultChunkPages and DefaultChunkOverlap shape /windows responses
	// when the request does not override them.
	DefaultChunkPages   int
	DefaultChunkOverlap int
	// FallbackAPIKey is the server side credential for the vision
	// collaborator; requests never carry it.
	FallbackAPIKey string
	FallbackModel  string
}

type Router struct {
	ingestor ports.DocumentIngestor
	reader   ports.DocumentReader
	pipeline ports.DocumentPipeline
	storage  ports.ObjectStorage
	report   ports.ReportWriter
	cfg      RouterConfig

	metrics *metrics.HTTPServerMetrics
	service string
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	reader ports.DocumentReader,
	pipeline ports.DocumentPipeline,
	storage ports.ObjectStorage,
	report ports.ReportWriter,
	cfg RouterConfig,
) *Router {
	return &Router{
		ingestor: ingestor,
		reader:   reader,
		pipeline: pipeline,
		storage:  storage,
		report:   report,
		cfg:      cfg,
	}
}

// WithMetrics attaches the pipeline-level recorders. Request-level
// metrics stay in the outer middleware the binary mounts.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics, service string) *Router {
	rt.metrics = m
	rt.service = service
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.documentRoutes)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, 50*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

// documentRoutes dispatches /v1/documents/{id} and its sub-resources:
// /plan, /content, /windows, /report.
func (rt *Router) documentRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	switch sub {
	case "":
		rt.getDocumentByID(w, r, id)
	case "plan":
		rt.getPlan(w, r, id)
	case "content":
		rt.getContent(w, r, id)
	case "windows":
		rt.getWindows(w, r, id)
	case "report":
		rt.getReport(w, r, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown resource"})
	}
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) getPlan(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	profile, strategy, err := rt.pipeline.Plan(r.Context(), rt.storage.Path(doc.StoragePath))
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAssessment(rt.service, string(strategy.Kind), profile.ComplexityScore, profile.PageCount)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": doc.ID,
		"profile":     profile,
		"strategy":    strategy,
	})
}

func (rt *Router) getContent(w http.ResponseWriter, r *http.Request, id string) {
	shape := r.URL.Query().Get("shape")
	if shape == "" {
		shape = string(usecase.ShapeList)
	}
	parsed, err := usecase.ParseOutputShape(shape)
	if err != nil {
		writeError(w, err)
		return
	}
	if parsed == usecase.ShapeStream {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "shape=stream is not addressable over this endpoint, use list or text",
		})
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := ports.ProcessOptions{
		ExtractImages:      queryBool(r, "images"),
		ExtractTables:      queryBool(r, "tables"),
		FallbackCredential: rt.cfg.FallbackAPIKey,
		FallbackModel:      rt.cfg.FallbackModel,
	}
	if raw := r.URL.Query().Get("chunk_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "chunk_size must be a positive integer"})
			return
		}
		opts.ChunkSize = n
	}

	path := rt.storage.Path(doc.StoragePath)
	stats := domain.NewFallbackStats()
	opts.Stats = stats
	start := time.Now()

	switch parsed {
	case usecase.ShapeText:
		text, err := rt.pipeline.Text(r.Context(), path, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		usage := stats.Snapshot()
		rt.recordContentMetrics(usage, start)
		writeJSON(w, http.StatusOK, map[string]any{
			"document_id":    doc.ID,
			"text":           text,
			"fallback_usage": usage,
		})
	case usecase.ShapeList:
		pages, err := rt.pipeline.Collect(r.Context(), path, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		usage := stats.Snapshot()
		rt.recordContentMetrics(usage, start)
		writeJSON(w, http.StatusOK, map[string]any{
			"document_id":    doc.ID,
			"pages":          pages,
			"fallback_usage": usage,
		})
	}
}

func (rt *Router) recordContentMetrics(usage domain.FallbackUsage, start time.Time) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordPagesStreamed(rt.service, int(usage.TotalPages))
	for reason, count := range usage.ByReason {
		rt.metrics.RecordFallbackPages(rt.service, reason, count)
	}
	rt.metrics.RecordStreamDuration(rt.service, "", time.Since(start))
}

func (rt *Router) getWindows(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	chunkPages := rt.cfg.DefaultChunkPages
	overlap := rt.cfg.DefaultChunkOverlap
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "size must be an integer"})
			return
		}
		chunkPages = n
	}
	if raw := r.URL.Query().Get("overlap"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "overlap must be an integer"})
			return
		}
		overlap = n
	}

	windows := make([][]domain.PageRecord, 0)
	for window, err := range rt.pipeline.Windows(r.Context(), rt.storage.Path(doc.StoragePath), chunkPages, overlap) {
		if err != nil {
			writeError(w, err)
			return
		}
		windows = append(windows, window)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": doc.ID,
		"chunk_pages": chunkPages,
		"overlap":     overlap,
		"windows":     windows,
	})
}

func (rt *Router) getReport(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if doc.Profile == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "document has not been assessed yet"})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.ID+"_assessment.xlsx"))
	// Headers are already out; a write failure leaves a truncated body.
	_ = rt.report.WriteAssessment(doc, w)
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
