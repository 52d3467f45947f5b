package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docstream/internal/core/ports"
	"github.com/kirillkom/docstream/internal/infrastructure/resilience"
)

const (
	defaultModel = "gpt-4o-mini"

	// Decision thresholds for routing a page to vision extraction.
	minBaselineTextLen  = 10
	complexityThreshold = 85.0
	denseBlockCount     = 20
	denseBlockSpan      = 0.7
	manyFontsThreshold  = 15
)

// Client calls an OpenAI-compatible vision endpoint as the secondary
// extraction path for pages the baseline engine cannot read. Requests go
// through the shared resilience executor; the caller's credential is
// passed per call and never stored.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Decide reports whether a page needs the fallback path and why. The
// checks are ordered from strongest signal to weakest; the first match
// wins.
func (c *Client) Decide(page ports.Page, complexityScore float64) (bool, string) {
	text, err := page.Text()
	if err != nil {
		return true, "extraction_error"
	}
	if len(strings.TrimSpace(text)) < minBaselineTextLen {
		return true, "scanned_pdf"
	}
	if complexityScore > complexityThreshold {
		return true, "high_complexity"
	}
	if isDenseLayout(page) {
		return true, "complex_layout"
	}
	if len(page.Fonts()) > manyFontsThreshold {
		return true, "many_fonts"
	}
	return false, "standard"
}

// isDenseLayout flags pages whose text blocks are both numerous and
// spread across most of the page width, a layout the baseline extractor
// tends to scramble.
func isDenseLayout(page ports.Page) bool {
	blocks := page.Blocks()
	if len(blocks) <= denseBlockCount {
		return false
	}
	width := page.Geometry().Width
	if width <= 0 {
		return false
	}
	minX, maxX := blocks[0].X, blocks[0].X
	for _, b := range blocks[1:] {
		if b.X < minX {
			minX = b.X
		}
		if b.X > maxX {
			maxX = b.X
		}
	}
	return (maxX-minX)/width > denseBlockSpan
}

const extractionPrompt = "Extract all text content from this document page. " +
	"Preserve the reading order and structure. Return only the extracted text."

// Extract sends the page snapshot to the vision model and returns the
// extracted text.
func (c *Client) Extract(ctx context.Context, page ports.Page, credential, model string) (string, error) {
	if credential == "" {
		return "", fmt.Errorf("vision extract: missing credential")
	}
	if model == "" {
		model = defaultModel
	}

	snapshot, err := page.Snapshot()
	if err != nil {
		return "", fmt.Errorf("vision extract page %d: %w", page.Number(), err)
	}
	encoded := base64.StdEncoding.EncodeToString(snapshot)

	request := chatRequest{
		Model: model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContent{
				{Type: "text", Text: extractionPrompt},
				{Type: "image_url", ImageURL: &chatImageURL{
					URL: "data:application/octet-stream;base64," + encoded,
				}},
			},
		}},
		MaxTokens: 4096,
	}

	var response chatResponse
	err = c.executor.Execute(ctx, "vision_extract", func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1/chat/completions", credential, request, &response, "extract")
	}, classifyVisionError)
	if err != nil {
		return "", wrapTemporaryIfNeeded(fmt.Sprintf("vision extract page %d", page.Number()), err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("vision extract page %d: empty choices", page.Number())
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
