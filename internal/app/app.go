// Package app wires the configured engines into a document service.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/a3tai/mcp-clinical-pdf/internal/config"
	"github.com/a3tai/mcp-clinical-pdf/internal/ocr/tesseract"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/raster"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/wrapper"
	"github.com/a3tai/mcp-clinical-pdf/internal/vocab"
)

// NewLogger returns a JSON logger writing to w at the configured level.
// Callers in stdio mode must pass stderr, stdout belongs to the protocol.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// ServiceOptions builds the service options for cfg with the production
// engines: pdfcpu and ledongthuc for documents, pdftoppm for rasterizing and
// Tesseract for OCR
func ServiceOptions(cfg *config.Config, log *slog.Logger) (pdf.Options, error) {
	v := vocab.Default()
	if cfg.VocabularyFile != "" {
		loaded, err := vocab.LoadFile(cfg.VocabularyFile)
		if err != nil {
			return pdf.Options{}, fmt.Errorf("failed to load vocabulary: %w", err)
		}
		v = loaded
	}

	return pdf.Options{
		MaxFileSize:      cfg.MaxFileSize,
		Directory:        cfg.PDFDirectory,
		Threshold:        cfg.Threshold,
		KeywordThreshold: cfg.KeywordThreshold,
		MinTextLength:    cfg.MinTextLength,
		LabelBandHeight:  cfg.LabelBandHeight,
		Vocabulary:       v,
		Opener:           wrapper.NewOpener(),
		Rasterizer:       raster.NewPdftoppm(cfg.PdftoppmPath, log),
		Recognizer:       tesseract.NewRecognizer(cfg.OCRLanguages()...),
		Logger:           log,
	}, nil
}

// NewService creates the document service for cfg. A missing pdftoppm is
// logged, not fatal: documents with a text layer can still be checked.
func NewService(cfg *config.Config, log *slog.Logger) (*pdf.Service, error) {
	opts, err := ServiceOptions(cfg, log)
	if err != nil {
		return nil, err
	}

	if checker, ok := opts.Rasterizer.(interface{ Available() error }); ok {
		if err := checker.Available(); err != nil {
			log.Warn("OCR fallback unavailable", "error", err)
		}
	}

	return pdf.NewService(opts)
}
