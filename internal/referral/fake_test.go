package referral

import (
	"context"
	"fmt"

	"github.com/a3tai/mcp-clinical-pdf/internal/ocr"
)

// fakeRasterizer returns "page-N" as the image of page N
type fakeRasterizer struct {
	err   error
	pages []int
	zooms []float64
}

func (r *fakeRasterizer) Rasterize(_ context.Context, _ string, page int, zoom float64) ([]byte, error) {
	r.pages = append(r.pages, page)
	r.zooms = append(r.zooms, zoom)
	if r.err != nil {
		return nil, r.err
	}
	return []byte(fmt.Sprintf("page-%d", page)), nil
}

// fakeRecognizer returns a fixed text for every image
type fakeRecognizer struct {
	text  string
	err   error
	modes []ocr.PageSegMode
}

func (r *fakeRecognizer) Recognize(_ context.Context, _ []byte, mode ocr.PageSegMode) (string, error) {
	r.modes = append(r.modes, mode)
	if r.err != nil {
		return "", r.err
	}
	return r.text, nil
}
