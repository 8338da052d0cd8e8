package wrapper

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// lineTolerance is the vertical distance, in points, within which two glyphs
// are considered to sit on the same text line
const lineTolerance = 2.0

// ledongthucText reads the text layer of a document
type ledongthucText struct {
	reader *pdf.Reader
}

func (t *ledongthucText) page(pageNum int) (pdf.Page, error) {
	if pageNum < 1 || pageNum > t.reader.NumPage() {
		return pdf.Page{}, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "page",
			Err:     fmt.Errorf("%w %d (document has %d pages)", ErrInvalidPage, pageNum, t.reader.NumPage()),
		}
	}
	return t.reader.Page(pageNum), nil
}

// pageText returns the plain text of a page. A page without a page object
// yields an empty string.
func (t *ledongthucText) pageText(pageNum int) (text string, err error) {
	// Add panic recovery for malformed PDF streams
	defer func() {
		if r := recover(); r != nil {
			err = &WrapperError{
				Library: LibraryLedongthuc,
				Op:      "page_text",
				Err:     fmt.Errorf("panic during text extraction on page %d: %v", pageNum, r),
			}
		}
	}()

	page, err := t.page(pageNum)
	if err != nil {
		return "", err
	}
	if page.V.IsNull() {
		return "", nil
	}

	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", &WrapperError{Library: LibraryLedongthuc, Op: "page_text", Err: err}
	}
	return text, nil
}

func (t *ledongthucText) textInRect(pageNum int, r Rectangle) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &WrapperError{
				Library: LibraryLedongthuc,
				Op:      "text_in_rect",
				Err:     fmt.Errorf("panic during text extraction on page %d: %v", pageNum, rec),
			}
		}
	}()

	page, err := t.page(pageNum)
	if err != nil {
		return "", err
	}
	if page.V.IsNull() {
		return "", nil
	}

	var glyphs []Glyph
	for _, g := range page.Content().Text {
		if r.Contains(Point{X: g.X, Y: g.Y}) {
			glyphs = append(glyphs, Glyph{X: g.X, Y: g.Y, W: g.W, FontSize: g.FontSize, S: g.S})
		}
	}
	return JoinGlyphs(glyphs), nil
}

// Glyph is a positioned run of text as reported by the content stream
// interpreter
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// JoinGlyphs arranges glyphs into lines, top to bottom and left to right. A
// space is inserted where the horizontal gap between two glyphs exceeds a
// quarter of the font size.
func JoinGlyphs(glyphs []Glyph) string {
	if len(glyphs) == 0 {
		return ""
	}

	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > lineTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []string
	var current strings.Builder
	prev := sorted[0]
	current.WriteString(prev.S)

	for _, g := range sorted[1:] {
		if math.Abs(g.Y-prev.Y) > lineTolerance {
			lines = append(lines, normalizeSpaces(current.String()))
			current.Reset()
		} else if g.X-(prev.X+prev.W) > prev.FontSize/4 {
			current.WriteByte(' ')
		}
		current.WriteString(g.S)
		prev = g
	}
	lines = append(lines, normalizeSpaces(current.String()))

	return strings.Join(lines, "\n")
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
