package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/mcp-clinical-pdf/internal/ocr"
	pdferrors "github.com/a3tai/mcp-clinical-pdf/internal/pdf/errors"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/raster"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/wrapper"
)

const (
	// DefaultMinTextLength is the shortest page text, in characters, accepted
	// without falling back to OCR
	DefaultMinTextLength = 20
	// DefaultTextRasterZoom renders fallback pages at 200 DPI
	DefaultTextRasterZoom = 200.0 / 72.0
)

// TextConfig tunes the text layer extractor
type TextConfig struct {
	MinTextLength int
	RasterZoom    float64
}

// TextExtractor recovers one text string per page. Pages with no usable text
// layer are rasterized and recognized instead. Nothing is cached: each call
// reads the document again.
type TextExtractor struct {
	opener     wrapper.Opener
	forms      *FormExtractor
	rasterizer raster.Rasterizer
	recognizer ocr.Recognizer
	cfg        TextConfig
	log        *slog.Logger
}

// NewTextExtractor creates a text layer extractor
func NewTextExtractor(
	opener wrapper.Opener, forms *FormExtractor, rasterizer raster.Rasterizer, recognizer ocr.Recognizer,
	cfg TextConfig, log *slog.Logger,
) *TextExtractor {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = DefaultMinTextLength
	}
	if cfg.RasterZoom <= 0 {
		cfg.RasterZoom = DefaultTextRasterZoom
	}

	return &TextExtractor{
		opener:     opener,
		forms:      forms,
		rasterizer: rasterizer,
		recognizer: recognizer,
		cfg:        cfg,
		log:        log,
	}
}

// ExtractPages returns the text of every page in document order
func (te *TextExtractor) ExtractPages(ctx context.Context, path string) ([]string, error) {
	pages, err := te.ExtractPageTexts(ctx, path)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	return texts, nil
}

// ExtractPageTexts returns the text of every page together with its source.
// The form fields of the document are prefixed to each page as "name: value"
// lines so that matchers see form data as page text. Any failure aborts the
// whole document with an *errors.ExtractionError.
func (te *TextExtractor) ExtractPageTexts(ctx context.Context, path string) ([]PageText, error) {
	prefix := FormPrefix(te.forms.ExtractFile(path))

	doc, err := te.opener.Open(path)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeDocumentOpen, err).WithFile(path)
	}
	defer doc.Close()

	pages := make([]PageText, 0, doc.NumPages())
	for page := 1; page <= doc.NumPages(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeTextExtraction, err).WithFile(path).WithPage(page)
		}

		native, err := doc.PageText(page)
		if err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeTextExtraction, err).WithFile(path).WithPage(page)
		}

		text := prefix + strings.TrimSpace(native)
		if utf8.RuneCountInString(text) >= te.cfg.MinTextLength {
			pages = append(pages, PageText{Number: page, Text: text, Source: SourceTextLayer})
			continue
		}

		te.log.Debug("Page text too short, falling back to OCR",
			"path", path, "page", page, "length", utf8.RuneCountInString(text))

		recognized, err := te.recognize(ctx, path, page)
		if err != nil {
			return nil, err
		}
		pages = append(pages, PageText{Number: page, Text: recognized, Source: SourceOCR})
	}

	return pages, nil
}

func (te *TextExtractor) recognize(ctx context.Context, path string, page int) (string, error) {
	img, err := te.rasterizer.Rasterize(ctx, path, page, te.cfg.RasterZoom)
	if err != nil {
		return "", pdferrors.WrapError(pdferrors.ErrorTypeRasterize, err).WithFile(path).WithPage(page)
	}

	text, err := te.recognizer.Recognize(ctx, img, ocr.PageSegAuto)
	if err != nil {
		return "", pdferrors.WrapError(pdferrors.ErrorTypeOCR, err).WithFile(path).WithPage(page)
	}
	return ocr.Normalize(text), nil
}

// FormPrefix renders the non-empty form fields as "name: value" lines in
// discovery order
func FormPrefix(fields *FormFields) string {
	var b strings.Builder
	for _, f := range fields.Fields() {
		if f.Value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Value)
	}
	return b.String()
}
