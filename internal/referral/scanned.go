package referral

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/a3tai/mcp-clinical-pdf/internal/ocr"
	pdferrors "github.com/a3tai/mcp-clinical-pdf/internal/pdf/errors"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/raster"
	"github.com/a3tai/mcp-clinical-pdf/internal/vocab"
)

// DefaultScanZoom renders the first page of a scanned form at 144 DPI
const DefaultScanZoom = 2.0

var (
	phoneRe       = regexp.MustCompile(`\b\d{10}\b`)
	emailRe       = regexp.MustCompile(`\S+@\S+\.\S+`)
	forceTypeRe   = regexp.MustCompile(`\s*\|\s*Force Type.*`)
	numberRe      = regexp.MustCompile(`\b(\d+)\b`)
	maleRe        = regexp.MustCompile(`(?i)\b(male|m)\b`)
	femaleRe      = regexp.MustCompile(`(?i)\b(female|f)\b`)
	clinicalNotes = regexp.MustCompile(`(?i)clinical\s+notes\s*[:\s]\s*`)
)

// ScannedExtractor reads the fields of a scanned referral form by OCR of its
// first page
type ScannedExtractor struct {
	rasterizer raster.Rasterizer
	recognizer ocr.Recognizer
	patterns   []vocab.CompiledPatterns
	fields     []string
	zoom       float64
	log        *slog.Logger
}

// NewScannedExtractor compiles the pattern table of v and returns an extractor
func NewScannedExtractor(
	rasterizer raster.Rasterizer, recognizer ocr.Recognizer, v *vocab.Vocabulary, log *slog.Logger,
) (*ScannedExtractor, error) {
	if log == nil {
		log = slog.Default()
	}
	if v == nil {
		v = vocab.Default()
	}

	patterns, err := v.CompilePatterns()
	if err != nil {
		return nil, err
	}

	return &ScannedExtractor{
		rasterizer: rasterizer,
		recognizer: recognizer,
		patterns:   patterns,
		fields:     v.ReferralFields,
		zoom:       DefaultScanZoom,
		log:        log,
	}, nil
}

// Extract rasterizes and recognizes the first page of the document at path
// and parses its fields. It returns the fields together with the recognized
// text. Rendering or recognition failures are logged and yield an empty field
// set and empty text.
func (se *ScannedExtractor) Extract(ctx context.Context, path string) (*Fields, string) {
	img, err := se.rasterizer.Rasterize(ctx, path, 1, se.zoom)
	if err != nil {
		se.log.Warn("Scanned form rendering failed",
			"error", pdferrors.WrapError(pdferrors.ErrorTypeRasterize, err).WithFile(path).WithPage(1))
		return NewFields(se.fields), ""
	}

	text, err := se.recognizer.Recognize(ctx, img, ocr.PageSegAuto)
	if err != nil {
		se.log.Warn("Scanned form recognition failed",
			"error", pdferrors.WrapError(pdferrors.ErrorTypeOCR, err).WithFile(path).WithPage(1))
		return NewFields(se.fields), ""
	}

	text = ocr.Normalize(text)
	return se.Parse(text), text
}

// Parse matches every line of OCR text against the pattern table. A label
// line without a value takes the following line as its value unless that line
// is itself a label. A later non-empty match replaces an earlier value.
func (se *ScannedExtractor) Parse(text string) *Fields {
	fields := NewFields(se.fields)
	lines := strings.Split(text, "\n")

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		for _, fp := range se.patterns {
			if !matchesAny(fp.Patterns, line) {
				continue
			}

			value := se.capture(fp, line)
			if value == "" && i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if !se.isLabel(next) {
					value = next
				}
			}
			if fp.Field == vocab.FieldGender {
				value = normalizeGender(value)
			}

			if value != "" {
				fields.Set(fp.Field, value)
			}
		}
	}

	return fields
}

// capture returns the value of the first pattern that yields one: its first
// capture group, or the whole match for a pattern without groups
func (se *ScannedExtractor) capture(fp vocab.CompiledPatterns, line string) string {
	for _, re := range fp.Patterns {
		m := re.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}

		value := ""
		switch {
		case re.NumSubexp() == 0:
			value = line[m[0]:m[1]]
		case m[2] >= 0:
			value = strings.TrimSpace(line[m[2]:m[3]])
		}
		value = postProcess(fp.Field, value, line)
		if value != "" {
			return value
		}
	}
	return ""
}

func (se *ScannedExtractor) isLabel(line string) bool {
	for _, fp := range se.patterns {
		if matchesAny(fp.Patterns, line) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func postProcess(field, value, line string) string {
	switch field {
	case vocab.FieldContact:
		if phone := phoneRe.FindString(line); phone != "" {
			value = phone
		}
		if email := emailRe.FindString(line); email != "" {
			if value != "" && value != email {
				value = value + " | Email ID: " + email
			} else {
				value = email
			}
		}
	case vocab.FieldPatientName:
		value = strings.TrimSpace(forceTypeRe.ReplaceAllString(value, ""))
	case vocab.FieldAge:
		if m := numberRe.FindStringSubmatch(value); m != nil {
			value = m[1]
		}
	case vocab.FieldGender:
		value = normalizeGender(value)
	case vocab.FieldDiagnosis:
		value = strings.TrimSpace(clinicalNotes.ReplaceAllString(value, ""))
	}
	return value
}

// normalizeGender maps a gender value to "Male" or "Female" when it contains
// a recognizable token and leaves it unchanged otherwise
func normalizeGender(value string) string {
	switch {
	case value == "":
		return ""
	case maleRe.MatchString(value):
		return "Male"
	case femaleRe.MatchString(value):
		return "Female"
	}
	return value
}
