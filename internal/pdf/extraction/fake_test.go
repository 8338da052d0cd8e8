package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/a3tai/mcp-clinical-pdf/internal/ocr"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/wrapper"
)

// fakePage is the in-memory content of one page
type fakePage struct {
	text        string
	textErr     error
	widgets     []wrapper.Widget
	widgetErr   error
	annotations []wrapper.Annotation
	annotErr    error
	content     []byte
	contentErr  error
	// rectText maps a rectangle to the text found inside it
	rectText map[wrapper.Rectangle]string
}

type fakeDocument struct {
	pages  []fakePage
	closed int
}

func (d *fakeDocument) NumPages() int { return len(d.pages) }

func (d *fakeDocument) page(n int) (fakePage, error) {
	if n < 1 || n > len(d.pages) {
		return fakePage{}, fmt.Errorf("invalid page %d", n)
	}
	return d.pages[n-1], nil
}

func (d *fakeDocument) PageText(n int) (string, error) {
	p, err := d.page(n)
	if err != nil {
		return "", err
	}
	return p.text, p.textErr
}

func (d *fakeDocument) Widgets(n int) ([]wrapper.Widget, error) {
	p, err := d.page(n)
	if err != nil {
		return nil, err
	}
	return p.widgets, p.widgetErr
}

func (d *fakeDocument) Annotations(n int) ([]wrapper.Annotation, error) {
	p, err := d.page(n)
	if err != nil {
		return nil, err
	}
	return p.annotations, p.annotErr
}

func (d *fakeDocument) ContentStream(n int) ([]byte, error) {
	p, err := d.page(n)
	if err != nil {
		return nil, err
	}
	return p.content, p.contentErr
}

func (d *fakeDocument) TextInRect(n int, r wrapper.Rectangle) (string, error) {
	p, err := d.page(n)
	if err != nil {
		return "", err
	}
	return p.rectText[r], nil
}

func (d *fakeDocument) Close() error {
	d.closed++
	return nil
}

// fakeOpener hands out the same document for every path and counts opens
type fakeOpener struct {
	doc   *fakeDocument
	err   error
	opens int
}

func (o *fakeOpener) Open(string) (wrapper.Document, error) {
	o.opens++
	if o.err != nil {
		return nil, o.err
	}
	return o.doc, nil
}

// fakeRasterizer returns "page-N" as the image of page N
type fakeRasterizer struct {
	err   error
	calls []int
	zooms []float64
}

func (r *fakeRasterizer) Rasterize(_ context.Context, _ string, page int, zoom float64) ([]byte, error) {
	r.calls = append(r.calls, page)
	r.zooms = append(r.zooms, zoom)
	if r.err != nil {
		return nil, r.err
	}
	return []byte(fmt.Sprintf("page-%d", page)), nil
}

// fakeRecognizer maps image bytes to recognized text
type fakeRecognizer struct {
	texts map[string]string
	err   error
	modes []ocr.PageSegMode
}

func (r *fakeRecognizer) Recognize(_ context.Context, image []byte, mode ocr.PageSegMode) (string, error) {
	r.modes = append(r.modes, mode)
	if r.err != nil {
		return "", r.err
	}
	text, ok := r.texts[string(image)]
	if !ok {
		return "", errors.New("unexpected image")
	}
	return text, nil
}

var interactiveSubtypes = []string{"Widget", "FreeText", "Text", "Stamp", "FileAttachment"}
