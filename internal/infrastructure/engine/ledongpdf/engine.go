package ledongpdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/docstream/internal/core/domain"
	"github.com/kirillkom/docstream/internal/core/ports"
)

// Engine adapts the ledongthuc/pdf reader to the document engine port.
// The underlying library panics on malformed structures instead of
// returning errors, so every traversal below runs behind a recover.
type Engine struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

func (e *Engine) Open(ctx context.Context, path string) (ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidDocument, "open "+path, err)
	}

	doc := &document{
		file:   file,
		reader: reader,
		logger: e.logger,
	}
	doc.metadata, doc.encrypted = doc.readMetadata(path)
	return doc, nil
}

type document struct {
	file      *os.File
	reader    *pdf.Reader
	metadata  map[string]string
	encrypted bool
	logger    *slog.Logger
}

func (d *document) PageCount() int {
	count := 0
	recovered := safely(func() {
		count = d.reader.NumPage()
	})
	if recovered != nil {
		d.logger.Warn("page count unavailable", "error", recovered)
	}
	return count
}

func (d *document) Metadata() map[string]string { return d.metadata }

func (d *document) Encrypted() bool { return d.encrypted }

func (d *document) Page(number int) (ports.Page, error) {
	if number < 1 || number > d.PageCount() {
		return nil, domain.WrapError(domain.ErrPageAccess,
			fmt.Sprintf("page %d", number),
			fmt.Errorf("out of range 1..%d", d.PageCount()))
	}

	var p pdf.Page
	if err := safely(func() { p = d.reader.Page(number) }); err != nil {
		return nil, domain.WrapError(domain.ErrPageAccess, fmt.Sprintf("page %d", number), err)
	}
	if p.V.IsNull() {
		return nil, domain.WrapError(domain.ErrPageAccess,
			fmt.Sprintf("page %d", number), fmt.Errorf("null page object"))
	}
	return &page{number: number, p: p, logger: d.logger}, nil
}

func (d *document) Close() error {
	return d.file.Close()
}

// infoKeys is the subset of the Info dictionary exposed as document
// metadata, lowercased to match the profile contract.
var infoKeys = map[string]string{
	"Title":    "title",
	"Author":   "author",
	"Subject":  "subject",
	"Creator":  "creator",
	"Producer": "producer",
}

func (d *document) readMetadata(path string) (map[string]string, bool) {
	metadata := map[string]string{}
	encrypted := false

	if format := headerVersion(d.file); format != "" {
		metadata["format"] = format
	} else {
		d.logger.Warn("document header version unreadable", "path", path)
	}

	if err := safely(func() {
		trailer := d.reader.Trailer()
		if trailer.IsNull() {
			return
		}
		if enc := trailer.Key("Encrypt"); !enc.IsNull() {
			encrypted = true
			if filter := enc.Key("Filter"); !filter.IsNull() {
				metadata["encryption"] = filter.Name()
			} else {
				metadata["encryption"] = "unknown"
			}
		}
		info := trailer.Key("Info")
		if info.IsNull() {
			return
		}
		for key, name := range infoKeys {
			if v := info.Key(key); !v.IsNull() {
				if text := strings.TrimSpace(v.Text()); text != "" {
					metadata[name] = text
				}
			}
		}
	}); err != nil {
		d.logger.Warn("document metadata unreadable", "path", path, "error", err)
	}

	return metadata, encrypted
}

// headerVersion reads the %PDF-x.y marker from the start of the file and
// reports it as "PDF-x.y". The file offset is restored via ReadAt.
func headerVersion(file *os.File) string {
	buf := make([]byte, 16)
	n, err := file.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return ""
	}
	return parseHeaderVersion(string(buf[:n]))
}

func parseHeaderVersion(header string) string {
	if !strings.HasPrefix(header, "%PDF-") {
		return ""
	}
	rest := header[len("%PDF-"):]
	end := 0
	for end < len(rest) && (rest[end] == '.' || (rest[end] >= '0' && rest[end] <= '9')) {
		end++
	}
	if end == 0 {
		return ""
	}
	return "PDF-" + rest[:end]
}

type page struct {
	number int
	p      pdf.Page
	logger *slog.Logger
}

func (p *page) Number() int { return p.number }

func (p *page) Text() (string, error) {
	var text string
	var textErr error
	if err := safely(func() {
		text, textErr = p.p.GetPlainText(nil)
	}); err != nil {
		return "", fmt.Errorf("plain text of page %d: %w", p.number, err)
	}
	if textErr != nil {
		return "", fmt.Errorf("plain text of page %d: %w", p.number, textErr)
	}
	return text, nil
}

func (p *page) Fonts() []ports.FontInfo {
	var names []string
	if err := safely(func() { names = p.p.Fonts() }); err != nil {
		p.logger.Warn("font census failed", "page", p.number, "error", err)
		return nil
	}
	fonts := make([]ports.FontInfo, 0, len(names))
	for _, name := range names {
		fonts = append(fonts, ports.FontInfo{Name: name})
	}
	return fonts
}

func (p *page) Images() []domain.ImageRef {
	var images []domain.ImageRef
	if err := safely(func() {
		resources := p.p.V.Key("Resources")
		if resources.IsNull() {
			return
		}
		xobjects := resources.Key("XObject")
		if xobjects.IsNull() || xobjects.Kind() != pdf.Dict {
			return
		}
		for _, key := range xobjects.Keys() {
			obj := xobjects.Key(key)
			if obj.IsNull() {
				continue
			}
			if subtype := obj.Key("Subtype"); subtype.IsNull() || subtype.Name() != "Image" {
				continue
			}
			ref := domain.ImageRef{
				Name:             key,
				Width:            int(obj.Key("Width").Int64()),
				Height:           int(obj.Key("Height").Int64()),
				BitsPerComponent: int(obj.Key("BitsPerComponent").Int64()),
			}
			if cs := obj.Key("ColorSpace"); !cs.IsNull() && cs.Kind() == pdf.Name {
				ref.ColorSpace = cs.Name()
			}
			images = append(images, ref)
		}
	}); err != nil {
		p.logger.Warn("image census failed", "page", p.number, "error", err)
	}
	return images
}

func (p *page) Blocks() []domain.TextBlock {
	var blocks []domain.TextBlock
	if err := safely(func() {
		content := p.p.Content()
		for _, t := range content.Text {
			s := strings.TrimSpace(t.S)
			if s == "" {
				continue
			}
			blocks = append(blocks, domain.TextBlock{X: t.X, Y: t.Y, Text: t.S})
		}
	}); err != nil {
		p.logger.Warn("content stream unreadable", "page", p.number, "error", err)
	}
	return blocks
}

func (p *page) Geometry() domain.PageGeometry {
	geo := domain.PageGeometry{}
	if err := safely(func() {
		geo.Rotation = int(p.p.V.Key("Rotate").Int64())
		box, ok := mediaBox(p.p.V)
		if !ok {
			return
		}
		geo.MediaBox = box
		geo.Width = box[2] - box[0]
		geo.Height = box[3] - box[1]
	}); err != nil {
		p.logger.Warn("geometry unreadable", "page", p.number, "error", err)
	}
	return geo
}

// Snapshot returns the raw content stream bytes of the page, the most
// compact rendition the engine can hand to the fallback collaborator.
func (p *page) Snapshot() ([]byte, error) {
	var data []byte
	if err := safely(func() {
		contents := p.p.V.Key("Contents")
		switch contents.Kind() {
		case pdf.Stream:
			data = readStream(contents)
		case pdf.Array:
			for i := 0; i < contents.Len(); i++ {
				data = append(data, readStream(contents.Index(i))...)
			}
		}
	}); err != nil {
		return nil, fmt.Errorf("snapshot of page %d: %w", p.number, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("snapshot of page %d: no content stream", p.number)
	}
	return data, nil
}

func readStream(v pdf.Value) []byte {
	if v.Kind() != pdf.Stream {
		return nil
	}
	data, err := io.ReadAll(v.Reader())
	if err != nil {
		return nil
	}
	return data
}

// mediaBox resolves the page MediaBox, walking up Parent nodes when the
// page itself does not carry one. The walk is bounded to avoid loops in
// damaged page trees.
func mediaBox(page pdf.Value) ([4]float64, bool) {
	node := page
	for depth := 0; depth < 10; depth++ {
		if box := node.Key("MediaBox"); !box.IsNull() {
			if coords, ok := parseBox(box); ok {
				return coords, true
			}
		}
		parent := node.Key("Parent")
		if parent.IsNull() {
			break
		}
		node = parent
	}
	return [4]float64{}, false
}

func parseBox(box pdf.Value) ([4]float64, bool) {
	if box.Kind() != pdf.Array || box.Len() != 4 {
		return [4]float64{}, false
	}
	var coords [4]float64
	for i := 0; i < 4; i++ {
		v := box.Index(i)
		switch v.Kind() {
		case pdf.Integer:
			coords[i] = float64(v.Int64())
		case pdf.Real:
			coords[i] = v.Float64()
		default:
			return [4]float64{}, false
		}
	}
	if coords[2] <= coords[0] || coords[3] <= coords[1] {
		return [4]float64{}, false
	}
	return coords, true
}

func safely(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	fn()
	return nil
}
