package wrapper

import (
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// dualDocument answers structural questions (widgets, annotations, content
// streams) from pdfcpu and text questions from ledongthuc/pdf. The two
// libraries complement each other: pdfcpu exposes the object graph but has no
// text extraction, ledongthuc/pdf extracts positioned text but does not
// expose annotations.
type dualDocument struct {
	path      string
	file      *os.File
	structure *pdfcpuStructure
	text      *ledongthucText
	closed    bool
}

type dualOpener struct{}

// NewOpener returns the production Opener backed by pdfcpu and ledongthuc/pdf
func NewOpener() Opener {
	return dualOpener{}
}

// Open opens the file at path with both libraries. The returned document owns
// one file handle, released by Close.
func (dualOpener) Open(path string) (Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to open PDF: %w", err),
		}
	}

	structure, err := readStructure(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &dualDocument{
		path:      path,
		file:      f,
		structure: structure,
		text:      &ledongthucText{reader: reader},
	}, nil
}

func (d *dualDocument) checkOpen(op string) error {
	if d.closed {
		return &WrapperError{Op: op, Err: ErrDocumentClosed}
	}
	return nil
}

func (d *dualDocument) NumPages() int {
	if d.closed {
		return 0
	}
	return d.structure.numPages()
}

func (d *dualDocument) PageText(page int) (string, error) {
	if err := d.checkOpen("page_text"); err != nil {
		return "", err
	}
	return d.text.pageText(page)
}

func (d *dualDocument) Widgets(page int) ([]Widget, error) {
	if err := d.checkOpen("widgets"); err != nil {
		return nil, err
	}
	return d.structure.widgets(page)
}

func (d *dualDocument) Annotations(page int) ([]Annotation, error) {
	if err := d.checkOpen("annotations"); err != nil {
		return nil, err
	}
	return d.structure.annotations(page)
}

func (d *dualDocument) ContentStream(page int) ([]byte, error) {
	if err := d.checkOpen("content_stream"); err != nil {
		return nil, err
	}
	return d.structure.contentStream(page)
}

func (d *dualDocument) TextInRect(page int, r Rectangle) (string, error) {
	if err := d.checkOpen("text_in_rect"); err != nil {
		return "", err
	}
	return d.text.textInRect(page, r)
}

// Close releases the underlying file. Closing twice is a no-op.
func (d *dualDocument) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("failed to close %s: %w", d.path, err)
	}
	return nil
}
