package fullpage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/docstream/internal/core/domain"
	"github.com/kirillkom/docstream/internal/core/ports"
)

const (
	// rowTolerance is the vertical distance in points within which text
	// blocks are considered to sit on the same table row.
	rowTolerance = 5.0

	minTableBlocks = 4
	minTableRows   = 2
	minRowCells    = 2
)

// Extractor builds the full per-page record: text, image handles, layout
// metadata, and optionally detected tables. It never reaches back into
// the document; everything comes from the page handle it is given.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractPage(page ports.Page, flags ports.ExtractFlags) (domain.PageRecord, error) {
	text, err := page.Text()
	if err != nil {
		return domain.PageRecord{}, fmt.Errorf("extract page %d text: %w", page.Number(), err)
	}

	geo := page.Geometry()
	record := domain.PageRecord{
		PageNumber: page.Number(),
		Text:       text,
		Metadata: map[string]any{
			"width":     geo.Width,
			"height":    geo.Height,
			"rotation":  geo.Rotation,
			"media_box": geo.MediaBox,
		},
	}

	if flags.Images {
		record.Images = page.Images()
	}
	if flags.Tables {
		record.Tables = detectTables(page.Blocks())
	}
	return record, nil
}

// detectTables groups positioned text blocks into rows by Y proximity and
// reports a table when enough rows with a consistent multi-cell shape
// emerge. The first row becomes the header; shorter rows are padded to
// the header width.
func detectTables(blocks []domain.TextBlock) []domain.Table {
	if len(blocks) < minTableBlocks {
		return nil
	}

	rows := groupRows(blocks)

	var cellRows [][]string
	for _, row := range rows {
		if len(row) < minRowCells {
			continue
		}
		sort.Slice(row, func(i, j int) bool { return row[i].X < row[j].X })
		cells := make([]string, 0, len(row))
		for _, block := range row {
			cells = append(cells, strings.TrimSpace(block.Text))
		}
		cellRows = append(cellRows, cells)
	}
	if len(cellRows) < minTableRows {
		return nil
	}

	header := cellRows[0]
	body := make([][]string, 0, len(cellRows)-1)
	for _, row := range cellRows[1:] {
		body = append(body, padRow(row, len(header)))
	}

	return []domain.Table{{Header: header, Rows: body}}
}

// groupRows buckets blocks whose Y coordinates differ by at most
// rowTolerance, scanning top to bottom.
func groupRows(blocks []domain.TextBlock) [][]domain.TextBlock {
	sorted := make([]domain.TextBlock, len(blocks))
	copy(sorted, blocks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows [][]domain.TextBlock
	current := []domain.TextBlock{sorted[0]}
	currentY := sorted[0].Y

	for _, block := range sorted[1:] {
		if abs(block.Y-currentY) <= rowTolerance {
			current = append(current, block)
			continue
		}
		rows = append(rows, current)
		current = []domain.TextBlock{block}
		currentY = block.Y
	}
	return append(rows, current)
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
