package extraction

import (
	"bytes"
	"log/slog"
	"strings"

	pdferrors "github.com/a3tai/mcp-clinical-pdf/internal/pdf/errors"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/wrapper"
)

// DefaultLabelBandHeight is the height, in points, of the strip above a free
// text annotation that is read as its label
const DefaultLabelBandHeight = 20.0

// textFieldMarker opens the marked-content sequence of a text field
var textFieldMarker = []byte("/Tx BMC")

// FormConfig tunes form field discovery
type FormConfig struct {
	// InteractiveSubtypes lists the annotation subtypes treated as form fields
	InteractiveSubtypes []string
	// LabelBandHeight is the label strip height used for free text annotations
	LabelBandHeight float64
}

// FormExtractor recovers name/value pairs from the interactive parts of a
// PDF. Four discovery methods run on every page; failures in one method are
// logged and never abort the document.
type FormExtractor struct {
	opener     wrapper.Opener
	subtypes   map[string]bool
	bandHeight float64
	log        *slog.Logger
}

// NewFormExtractor creates a form extractor
func NewFormExtractor(opener wrapper.Opener, cfg FormConfig, log *slog.Logger) *FormExtractor {
	if log == nil {
		log = slog.Default()
	}
	if cfg.LabelBandHeight <= 0 {
		cfg.LabelBandHeight = DefaultLabelBandHeight
	}

	subtypes := make(map[string]bool, len(cfg.InteractiveSubtypes))
	for _, s := range cfg.InteractiveSubtypes {
		subtypes[s] = true
	}

	return &FormExtractor{
		opener:     opener,
		subtypes:   subtypes,
		bandHeight: cfg.LabelBandHeight,
		log:        log,
	}
}

// ExtractFile opens the document at path and extracts its form fields. A
// document that cannot be opened yields an empty set.
func (fe *FormExtractor) ExtractFile(path string) *FormFields {
	doc, err := fe.opener.Open(path)
	if err != nil {
		fe.log.Warn("Form field extraction skipped",
			"path", path,
			"error", pdferrors.WrapError(pdferrors.ErrorTypeInvalidForm, err).WithFile(path))
		return NewFormFields()
	}
	defer doc.Close()

	return fe.Extract(doc)
}

// Extract runs every discovery method over every page of doc. The caller
// keeps ownership of doc.
func (fe *FormExtractor) Extract(doc wrapper.Document) *FormFields {
	fields := NewFormFields()
	skipped := pdferrors.NewErrorCollection("")

	for page := 1; page <= doc.NumPages(); page++ {
		fe.fromWidgets(doc, page, fields, skipped)

		annots, err := doc.Annotations(page)
		if err != nil {
			fe.warn(skipped, pdferrors.ErrorTypeInvalidAnnotation, err, page)
		}

		fe.fromAnnotations(doc, page, annots, fields, skipped)
		fe.fromContentStream(doc, page, fields, skipped)
		fe.fromLabelProximity(doc, page, annots, fields, skipped)
	}

	errs, warnings := skipped.Count()
	fields.skipped = errs + warnings
	fe.log.Debug("Form fields extracted", "count", fields.Len(), "skipped", skipped.Summary())
	return fields
}

func (fe *FormExtractor) fromWidgets(doc wrapper.Document, page int, fields *FormFields, skipped *pdferrors.ErrorCollection) {
	widgets, err := doc.Widgets(page)
	if err != nil {
		fe.warn(skipped, pdferrors.ErrorTypeInvalidForm, err, page)
		return
	}

	for _, w := range widgets {
		fields.Set(FormField{Name: w.Name, Value: w.Value, Method: MethodWidget, Page: page})
	}
}

// fromAnnotations resolves the value of interactive annotations by probing
// the field value, then the contents, then the text under the annotation
func (fe *FormExtractor) fromAnnotations(
	doc wrapper.Document, page int, annots []wrapper.Annotation, fields *FormFields, skipped *pdferrors.ErrorCollection,
) {
	for _, a := range annots {
		if !fe.subtypes[a.Subtype] {
			continue
		}
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}

		value := strings.TrimSpace(a.Value)
		if value == "" {
			value = strings.TrimSpace(a.Contents)
		}
		if value == "" && !a.Rect.Empty() {
			text, err := doc.TextInRect(page, a.Rect)
			if err != nil {
				fe.warn(skipped, pdferrors.ErrorTypeInvalidAnnotation, err, page)
				continue
			}
			value = text
		}

		fields.Set(FormField{Name: name, Value: value, Method: MethodAnnotation, Page: page})
	}
}

// fromContentStream handles flattened text fields: when the page content
// still carries the text field marker, the first "label: value" line of the
// page text becomes a field
func (fe *FormExtractor) fromContentStream(
	doc wrapper.Document, page int, fields *FormFields, skipped *pdferrors.ErrorCollection,
) {
	content, err := doc.ContentStream(page)
	if err != nil {
		fe.warn(skipped, pdferrors.ErrorTypeContentStream, err, page)
		return
	}
	if !bytes.Contains(content, textFieldMarker) {
		return
	}

	text, err := doc.PageText(page)
	if err != nil {
		fe.warn(skipped, pdferrors.ErrorTypeContentStream, err, page)
		return
	}

	name, value, ok := SplitLabelLine(text)
	if !ok {
		return
	}
	fields.Set(FormField{Name: name, Value: value, Method: MethodContentStream, Page: page})
}

// fromLabelProximity pairs each free text annotation with the text printed
// directly above it
func (fe *FormExtractor) fromLabelProximity(
	doc wrapper.Document, page int, annots []wrapper.Annotation, fields *FormFields, skipped *pdferrors.ErrorCollection,
) {
	for _, a := range annots {
		if a.Subtype != "FreeText" || a.Rect.Empty() {
			continue
		}

		value := strings.TrimSpace(a.Contents)
		if value == "" {
			continue
		}

		label, err := doc.TextInRect(page, a.Rect.BandAbove(fe.bandHeight))
		if err != nil {
			fe.warn(skipped, pdferrors.ErrorTypeInvalidAnnotation, err, page)
			continue
		}
		label = strings.Join(strings.Fields(label), " ")
		if label == "" {
			continue
		}

		fields.Set(FormField{Name: label, Value: value, Method: MethodLabelProximity, Page: page})
	}
}

func (fe *FormExtractor) warn(
	skipped *pdferrors.ErrorCollection, errorType pdferrors.ErrorType, err error, page int,
) {
	wrapped := pdferrors.WrapError(errorType, err).WithPage(page)
	skipped.Add(wrapped)
	fe.log.Warn("Form field discovery failed", "error", wrapped)
}

// SplitLabelLine splits the first line containing a colon into a trimmed
// label and value. ok is false when there is no such line or either side is
// empty.
func SplitLabelLine(text string) (label, value string, ok bool) {
	for _, line := range strings.Split(text, "\n") {
		before, after, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		label = strings.TrimSpace(before)
		value = strings.TrimSpace(after)
		return label, value, label != "" && value != ""
	}
	return "", "", false
}
