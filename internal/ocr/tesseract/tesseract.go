// Package tesseract implements ocr.Recognizer with the Tesseract engine
// through gosseract. Building it requires cgo and the Tesseract and Leptonica
// development headers.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/a3tai/mcp-clinical-pdf/internal/ocr"
)

// Recognizer runs Tesseract on PNG page images
type Recognizer struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewRecognizer constructs a Tesseract-backed recognizer. An empty language
// list uses Tesseract's default ("eng").
func NewRecognizer(languages ...string) *Recognizer {
	return &Recognizer{languages: languages, clientFactory: gosseract.NewClient}
}

// Recognize performs OCR on a single image. A fresh client is used per call,
// so a Recognizer may be shared between requests.
func (r *Recognizer) Recognize(ctx context.Context, image []byte, mode ocr.PageSegMode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := r.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(r.languages) > 0 {
		if err := c.SetLanguage(r.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(mode)); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
