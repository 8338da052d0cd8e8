// Package pdf orchestrates document checks: path and file validation, page
// text and form field recovery, section matching and referral assembly.
package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-clinical-pdf/internal/matching"
	"github.com/a3tai/mcp-clinical-pdf/internal/ocr"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/extraction"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/raster"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/security"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/wrapper"
	"github.com/a3tai/mcp-clinical-pdf/internal/referral"
	"github.com/a3tai/mcp-clinical-pdf/internal/vocab"
)

// Options configures a Service
type Options struct {
	MaxFileSize      int64
	Directory        string
	Threshold        int
	KeywordThreshold int
	MinTextLength    int
	LabelBandHeight  float64
	Vocabulary       *vocab.Vocabulary
	Opener           wrapper.Opener
	Rasterizer       raster.Rasterizer
	Recognizer       ocr.Recognizer
	Logger           *slog.Logger
}

// Service handles clinical document checks by orchestrating the extraction
// and matching components
type Service struct {
	maxFileSize      int64
	threshold        int
	keywordThreshold int
	vocab            *vocab.Vocabulary
	rasterizer       raster.Rasterizer
	pathValidator    *security.PathValidator
	validator        *Validator
	forms            *extraction.FormExtractor
	text             *extraction.TextExtractor
	assembler        *referral.Assembler
	log              *slog.Logger
}

// NewService creates a new service with all components
func NewService(opts Options) (*Service, error) {
	if opts.MaxFileSize <= 0 {
		return nil, fmt.Errorf("maxFileSize must be greater than 0")
	}
	if opts.Opener == nil || opts.Rasterizer == nil || opts.Recognizer == nil {
		return nil, fmt.Errorf("opener, rasterizer and recognizer are required")
	}
	if opts.Threshold == 0 {
		opts.Threshold = matching.DefaultThreshold
	}
	if err := matching.ValidateThreshold(opts.Threshold); err != nil {
		return nil, err
	}
	if opts.KeywordThreshold == 0 {
		opts.KeywordThreshold = matching.DefaultKeywordThreshold
	}
	if opts.Vocabulary == nil {
		opts.Vocabulary = vocab.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	pathValidator, err := security.NewPathValidator(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	forms := extraction.NewFormExtractor(opts.Opener, extraction.FormConfig{
		InteractiveSubtypes: opts.Vocabulary.InteractiveAnnotationSubtypes,
		LabelBandHeight:     opts.LabelBandHeight,
	}, opts.Logger)

	text := extraction.NewTextExtractor(opts.Opener, forms, opts.Rasterizer, opts.Recognizer,
		extraction.TextConfig{MinTextLength: opts.MinTextLength}, opts.Logger)

	scanned, err := referral.NewScannedExtractor(opts.Rasterizer, opts.Recognizer, opts.Vocabulary, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanned form extractor: %w", err)
	}

	return &Service{
		maxFileSize:      opts.MaxFileSize,
		threshold:        opts.Threshold,
		keywordThreshold: opts.KeywordThreshold,
		vocab:            opts.Vocabulary,
		rasterizer:       opts.Rasterizer,
		pathValidator:    pathValidator,
		validator:        NewValidator(opts.MaxFileSize, opts.Opener),
		forms:            forms,
		text:             text,
		assembler:        referral.NewAssembler(forms, text, scanned, opts.Vocabulary, opts.Logger),
		log:              opts.Logger,
	}, nil
}

// resolve confines path to the configured directory and checks the file
func (s *Service) resolve(path string) (string, error) {
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	if err := s.validator.validatePDFFile(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

// CheckDischargeSummary reports the presence of every vocabulary heading
func (s *Service) CheckDischargeSummary(ctx context.Context, req DischargeSummaryRequest) (*DischargeSummaryResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	return s.checkDischargeSummary(ctx, path, req.Threshold)
}

func (s *Service) checkDischargeSummary(ctx context.Context, path string, threshold int) (*DischargeSummaryResult, error) {
	start := time.Now()

	if threshold == 0 {
		threshold = s.threshold
	}
	matcher, err := matching.NewSectionMatcher(threshold, s.vocab.Headings)
	if err != nil {
		return nil, err
	}

	pages, err := s.text.ExtractPageTexts(ctx, path)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(pages))
	ocrPages := []int{}
	for i, p := range pages {
		texts[i] = p.Text
		if p.Source == extraction.SourceOCR {
			ocrPages = append(ocrPages, p.Number)
		}
	}

	sections := matcher.Analyze(texts)
	result := &DischargeSummaryResult{
		ID:        uuid.New().String(),
		Path:      path,
		Threshold: threshold,
		Pages:     pages,
		PageCount: len(pages),
		OCRPages:  ocrPages,
		Sections:  sections,
		Missing:   matching.Missing(sections),
		Duration:  time.Since(start),
	}

	s.log.Info("Discharge summary checked",
		"path", path,
		"id", result.ID,
		"threshold", threshold,
		"pages", result.PageCount,
		"ocr_pages", len(ocrPages),
		"missing", len(result.Missing),
		"duration", result.Duration)

	return result, nil
}

// ExtractReferral assembles the referral form report of a document
func (s *Service) ExtractReferral(ctx context.Context, req PathRequest) (*referral.Result, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	return s.assembler.Assemble(ctx, path)
}

// ReferralTextFields reads referral fields from the page text alone
func (s *Service) ReferralTextFields(ctx context.Context, req PathRequest) (*ReferralTextResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}

	pages, err := s.text.ExtractPages(ctx, path)
	if err != nil {
		return nil, err
	}

	return &ReferralTextResult{
		Path: path,
		Result: referral.ExtractFromText(strings.Join(pages, "\n"), referral.TextOptions{
			Vocabulary:       s.vocab,
			KeywordThreshold: s.keywordThreshold,
		}),
	}, nil
}

// FormFields lists the form fields of a document
func (s *Service) FormFields(req PathRequest) (*FormFieldsResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	fields := s.forms.ExtractFile(path)
	return &FormFieldsResult{Path: path, Fields: fields.Fields(), Skipped: fields.Skipped()}, nil
}

// PageText returns the recovered text of every page
func (s *Service) PageText(ctx context.Context, req PathRequest) (*PageTextResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}

	pages, err := s.text.ExtractPageTexts(ctx, path)
	if err != nil {
		return nil, err
	}
	return &PageTextResult{Path: path, Pages: pages}, nil
}

// FindSection returns the first line, in page order, that matches the
// heading at the threshold. Longer headings are not considered.
func (s *Service) FindSection(ctx context.Context, req FindSectionRequest) (*SectionMatch, error) {
	heading := strings.TrimSpace(req.Heading)
	if heading == "" {
		return nil, fmt.Errorf("heading cannot be empty")
	}
	threshold := req.Threshold
	if threshold == 0 {
		threshold = s.threshold
	}
	if err := matching.ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}

	pages, err := s.text.ExtractPageTexts(ctx, path)
	if err != nil {
		return nil, err
	}

	result := &SectionMatch{Path: path, Heading: heading, Threshold: threshold}
	for _, page := range pages {
		if line, ok := matching.FindFirst(page.Text, heading, threshold); ok {
			result.Found = true
			result.Page = page.Number
			result.Line = line
			result.Source = page.Source
			break
		}
	}
	return result, nil
}

// DetectDocumentType classifies a document as a referral form or a
// discharge summary
func (s *Service) DetectDocumentType(ctx context.Context, req PathRequest) (*DetectResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	return s.detect(ctx, path)
}

func (s *Service) detect(ctx context.Context, path string) (*DetectResult, error) {
	pages, err := s.text.ExtractPages(ctx, path)
	if err != nil {
		return nil, err
	}

	result := &DetectResult{Path: path, Type: DocumentTypeDischargeSummary}
	if keyword, ok := referral.DetectReferral(pages, s.vocab.ReferralDocumentKeywords); ok {
		result.Type = DocumentTypeReferralForm
		result.Keyword = keyword
	}
	return result, nil
}

// Analyze runs the check matching the requested document type, detecting
// the type first when it is auto
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	path, err := s.resolve(req.Path)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, path, req)
}

func (s *Service) analyze(ctx context.Context, path string, req AnalyzeRequest) (*AnalyzeResult, error) {
	if req.Threshold != 0 {
		if err := matching.ValidateThreshold(req.Threshold); err != nil {
			return nil, err
		}
	}

	result := &AnalyzeResult{Type: req.Type}
	if req.Type == DocumentTypeAuto || req.Type == "" {
		detected, err := s.detect(ctx, path)
		if err != nil {
			return nil, err
		}
		result.Type = detected.Type
		result.Detected = true
		result.Keyword = detected.Keyword
	}

	switch result.Type {
	case DocumentTypeDischargeSummary:
		discharge, err := s.checkDischargeSummary(ctx, path, req.Threshold)
		if err != nil {
			return nil, err
		}
		result.Discharge = discharge
	case DocumentTypeReferralForm:
		ref, err := s.assembler.Assemble(ctx, path)
		if err != nil {
			return nil, err
		}
		result.Referral = ref
	default:
		return nil, fmt.Errorf("unsupported document type %q", result.Type)
	}

	return result, nil
}

// AnalyzeUpload stores an uploaded document in a temporary file, analyzes it
// and removes the file again whatever the outcome. Uploads bypass the
// configured directory but not the file checks.
func (s *Service) AnalyzeUpload(ctx context.Context, r io.Reader, req AnalyzeRequest) (*AnalyzeResult, error) {
	tmp, err := os.CreateTemp("", "clinical-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, s.maxFileSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if err := s.validator.ValidateSize(n); err != nil {
		return nil, err
	}
	if err := s.validator.validatePDFFile(tmp.Name()); err != nil {
		return nil, err
	}

	s.log.Debug("Upload stored", "path", tmp.Name(), "size", n)
	return s.analyze(ctx, tmp.Name(), req)
}

// ValidateFile checks whether a file is a readable PDF
func (s *Service) ValidateFile(req PathRequest) (*ValidateFileResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ValidateFile(path), nil
}

// Threshold returns the default section matching threshold
func (s *Service) Threshold() int {
	return s.threshold
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// Directory returns the configured document directory
func (s *Service) Directory() string {
	return s.pathValidator.Directory()
}
