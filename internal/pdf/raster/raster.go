// Package raster renders PDF pages to PNG images with poppler's pdftoppm.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultBinary is the pdftoppm executable looked up on PATH
const DefaultBinary = "pdftoppm"

// Rasterizer renders a single page of a PDF file. Zoom is relative to the
// PDF's native 72 DPI.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string, page int, zoom float64) ([]byte, error)
}

// Pdftoppm runs the pdftoppm binary once per page
type Pdftoppm struct {
	binary string
	log    *slog.Logger
}

// NewPdftoppm creates a rasterizer using the given binary; an empty binary
// means DefaultBinary
func NewPdftoppm(binary string, log *slog.Logger) *Pdftoppm {
	if binary == "" {
		binary = DefaultBinary
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pdftoppm{binary: binary, log: log}
}

// DPIForZoom converts a zoom factor to the resolution passed to pdftoppm
func DPIForZoom(zoom float64) int {
	if zoom <= 0 {
		zoom = 1
	}
	return int(math.Round(72 * zoom))
}

// Available reports whether the binary can be found
func (p *Pdftoppm) Available() error {
	if _, err := exec.LookPath(p.binary); err != nil {
		return fmt.Errorf("pdftoppm not available: %w", err)
	}
	return nil
}

// Rasterize renders page (1-based) of the PDF at path and returns the PNG
// bytes. The output is written to a private temporary directory that is
// removed before returning.
func (p *Pdftoppm) Rasterize(ctx context.Context, path string, page int, zoom float64) ([]byte, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page number %d", page)
	}

	dir, err := os.MkdirTemp("", "clinical-pdf-raster-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create raster directory: %w", err)
	}
	defer os.RemoveAll(dir)

	dpi := DPIForZoom(zoom)
	outputPrefix := filepath.Join(dir, "page")
	pageArg := strconv.Itoa(page)

	cmd := exec.CommandContext(ctx, p.binary,
		"-f", pageArg,
		"-l", pageArg,
		"-png",
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		path,
		outputPrefix)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.log.Debug("Rasterizing page", "path", path, "page", page, "dpi", dpi)

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("pdftoppm page %d failed: %w: %s", page, err, msg)
		}
		return nil, fmt.Errorf("pdftoppm page %d failed: %w", page, err)
	}

	img, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no image for page %d: %w", page, err)
	}
	return img, nil
}
