package referral

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/extraction"
	"github.com/a3tai/mcp-clinical-pdf/internal/vocab"
)

// Result is an assembled referral form report
type Result struct {
	ID     string  `json:"id"`
	Path   string  `json:"path"`
	Fields *Fields `json:"fields"`
	// Empty lists the reliable fields that no source could fill
	Empty []string `json:"empty_fields"`
	// Sources maps each filled field to the source that supplied it
	Sources      map[string]string `json:"sources"`
	FullText     string            `json:"full_text"`
	FirstPageOCR string            `json:"first_page_ocr"`
	Referral     bool              `json:"referral_detected"`
	Keyword      string            `json:"referral_keyword,omitempty"`
	Duration     time.Duration     `json:"duration"`
}

// Assembler combines scanned OCR, the digital signature and PDF form fields
// into one referral report
type Assembler struct {
	forms   *extraction.FormExtractor
	text    *extraction.TextExtractor
	scanned *ScannedExtractor
	vocab   *vocab.Vocabulary
	log     *slog.Logger
}

// NewAssembler creates an assembler
func NewAssembler(
	forms *extraction.FormExtractor, text *extraction.TextExtractor, scanned *ScannedExtractor,
	v *vocab.Vocabulary, log *slog.Logger,
) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	if v == nil {
		v = vocab.Default()
	}
	return &Assembler{forms: forms, text: text, scanned: scanned, vocab: v, log: log}
}

// Assemble builds the referral report for the document at path. Scanned OCR
// values take precedence, then the digital signature, then form fields. Only
// a failure of the page text pass is returned as an error.
func (a *Assembler) Assemble(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	forms := a.forms.ExtractFile(path)
	scanned, ocrText := a.scanned.Extract(ctx, path)

	pages, err := a.text.ExtractPages(ctx, path)
	if err != nil {
		return nil, err
	}
	fullText := strings.Join(pages, "\n")

	fields, provenance := Merge(a.vocab.ReferralFields,
		FieldsSource(SourceScanned, scanned),
		SignatureSource(ScanSignature(fullText)),
		FormFieldSource(forms, a.vocab.FormFieldMapping),
	)

	firstPage := ocrText
	if firstPage == "" && len(pages) > 0 {
		firstPage = pages[0]
	}

	keyword, isReferral := DetectReferral(pages, a.vocab.ReferralDocumentKeywords)

	result := &Result{
		ID:           uuid.New().String(),
		Path:         path,
		Fields:       fields,
		Empty:        fields.EmptyOf(a.vocab.ReliableFields),
		Sources:      provenance,
		FullText:     fullText,
		FirstPageOCR: firstPage,
		Referral:     isReferral,
		Keyword:      keyword,
		Duration:     time.Since(start),
	}

	a.log.Info("Referral form assembled",
		"path", path,
		"id", result.ID,
		"pages", len(pages),
		"form_fields", forms.Len(),
		"empty_fields", len(result.Empty),
		"duration", result.Duration)

	return result, nil
}
