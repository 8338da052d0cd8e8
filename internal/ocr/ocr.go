// Package ocr defines the optical character recognition boundary. Engines
// receive an encoded page image and a page segmentation mode and return the
// recognized text.
package ocr

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PageSegMode selects how the engine splits the page into blocks before
// recognition. Values follow Tesseract's numbering.
type PageSegMode int

const (
	// PageSegAuto is fully automatic, layout aware page segmentation
	PageSegAuto PageSegMode = 3
	// PageSegSingleBlock treats the image as one uniform block of text
	PageSegSingleBlock PageSegMode = 6
)

// Recognizer turns an encoded image (PNG) into text
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mode PageSegMode) (string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface
type RecognizerFunc func(ctx context.Context, image []byte, mode PageSegMode) (string, error)

// Recognize calls f
func (f RecognizerFunc) Recognize(ctx context.Context, image []byte, mode PageSegMode) (string, error) {
	return f(ctx, image, mode)
}

// Normalize folds OCR output into a form the matchers can work with:
// compatibility characters such as ligatures and full-width digits are
// decomposed (NFKC) and line endings become "\n".
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return norm.NFKC.String(text)
}
