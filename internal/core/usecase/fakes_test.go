package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/docstream/internal/core/domain"
	"github.com/kirillkom/docstream/internal/core/ports"
)

type fakePage struct {
	number   int
	text     string
	textErr  error
	fonts    []ports.FontInfo
	images   []domain.ImageRef
	blocks   []domain.TextBlock
	geo      domain.PageGeometry
	snapshot []byte
}

func (p *fakePage) Number() int                    { return p.number }
func (p *fakePage) Text() (string, error)          { return p.text, p.textErr }
func (p *fakePage) Fonts() []ports.FontInfo        { return p.fonts }
func (p *fakePage) Images() []domain.ImageRef      { return p.images }
func (p *fakePage) Blocks() []domain.TextBlock     { return p.blocks }
func (p *fakePage) Geometry() domain.PageGeometry  { return p.geo }
func (p *fakePage) Snapshot() ([]byte, error)      { return p.snapshot, nil }

type fakeDocument struct {
	pageCount int
	metadata  map[string]string
	encrypted bool
	pages     map[int]*fakePage
	pageErrs  map[int]error
	closed    int
}

func (d *fakeDocument) PageCount() int { return d.pageCount }

func (d *fakeDocument) Metadata() map[string]string {
	if d.metadata == nil {
		return map[string]string{}
	}
	return d.metadata
}

func (d *fakeDocument) Encrypted() bool { return d.encrypted }

func (d *fakeDocument) Page(number int) (ports.Page, error) {
	if err, ok := d.pageErrs[number]; ok {
		return nil, err
	}
	if page, ok := d.pages[number]; ok {
		return page, nil
	}
	if number >= 1 && number <= d.pageCount {
		return &fakePage{number: number, text: fmt.Sprintf("page %d text", number)}, nil
	}
	return nil, errors.New("page out of range")
}

func (d *fakeDocument) Close() error {
	d.closed++
	return nil
}

type fakeEngine struct {
	doc     *fakeDocument
	openErr error
	opens   int
}

func (e *fakeEngine) Open(context.Context, string) (ports.Document, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	e.opens++
	return e.doc, nil
}

// plainDocument builds a document of n accessible text pages.
func plainDocument(n int) *fakeDocument {
	return &fakeDocument{pageCount: n}
}
