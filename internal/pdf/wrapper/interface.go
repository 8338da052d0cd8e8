package wrapper

import (
	"errors"
	"fmt"
)

// Document is the capability boundary between the extraction logic and the
// PDF engines. Pages are 1-based.
type Document interface {
	// NumPages returns the number of pages in the document
	NumPages() int

	// PageText returns the native text layer of a page
	PageText(page int) (string, error)

	// Widgets returns the interactive form widgets placed on a page
	Widgets(page int) ([]Widget, error)

	// Annotations returns every annotation on a page, widgets included
	Annotations(page int) ([]Annotation, error)

	// ContentStream returns the decoded content stream of a page
	ContentStream(page int) ([]byte, error)

	// TextInRect returns the text whose glyph origin lies inside r
	TextInRect(page int, r Rectangle) (string, error)

	Close() error
}

// Opener opens documents by path
type Opener interface {
	Open(path string) (Document, error)
}

// OpenerFunc adapts a function to the Opener interface
type OpenerFunc func(path string) (Document, error)

// Open calls f(path)
func (f OpenerFunc) Open(path string) (Document, error) {
	return f(path)
}

// LibraryType represents the underlying PDF library being used
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
)

// Point represents a coordinate point in PDF user space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rectangle represents a rectangular area in PDF user space (origin bottom left)
type Rectangle struct {
	LowerLeft  Point `json:"lower_left"`
	UpperRight Point `json:"upper_right"`
}

// NewRectangle builds a normalized rectangle from two opposite corners
func NewRectangle(x1, y1, x2, y2 float64) Rectangle {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Rectangle{
		LowerLeft:  Point{X: x1, Y: y1},
		UpperRight: Point{X: x2, Y: y2},
	}
}

// Width returns the horizontal extent
func (r Rectangle) Width() float64 {
	return r.UpperRight.X - r.LowerLeft.X
}

// Height returns the vertical extent
func (r Rectangle) Height() float64 {
	return r.UpperRight.Y - r.LowerLeft.Y
}

// Empty reports whether the rectangle has no area
func (r Rectangle) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Contains reports whether p lies inside r, edges included
func (r Rectangle) Contains(p Point) bool {
	return p.X >= r.LowerLeft.X && p.X <= r.UpperRight.X &&
		p.Y >= r.LowerLeft.Y && p.Y <= r.UpperRight.Y
}

// BandAbove returns the strip of the given height sitting directly on top of r
func (r Rectangle) BandAbove(height float64) Rectangle {
	return Rectangle{
		LowerLeft:  Point{X: r.LowerLeft.X, Y: r.UpperRight.Y},
		UpperRight: Point{X: r.UpperRight.X, Y: r.UpperRight.Y + height},
	}
}

// Widget is an interactive form field widget
type Widget struct {
	Name  string    `json:"name"`
	Value string    `json:"value"`
	Type  string    `json:"type"`
	Rect  Rectangle `json:"rect"`
}

// Annotation is a page annotation. Value is the field value (/V) when the
// annotation carries one, Contents its /Contents text.
type Annotation struct {
	Subtype  string    `json:"subtype"`
	Name     string    `json:"name,omitempty"`
	Value    string    `json:"value,omitempty"`
	Contents string    `json:"contents,omitempty"`
	Rect     Rectangle `json:"rect"`
}

// WrapperError reports a failure inside one of the PDF engines
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// Sentinel causes carried inside a WrapperError, for use with errors.Is
var (
	ErrDocumentClosed = errors.New("document is closed")
	ErrInvalidPage    = errors.New("invalid page number")
)
