package referral

import (
	"strings"

	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/extraction"
	"github.com/a3tai/mcp-clinical-pdf/internal/vocab"
)

// Candidate is a value a source proposes for a field
type Candidate struct {
	Field string
	Value string
}

// Source is one ordered contributor to a merged field set
type Source struct {
	Name       string
	Candidates []Candidate
}

// Source names recorded as field provenance
const (
	SourceScanned   = "scanned_ocr"
	SourceSignature = "signature"
	SourceFormField = "form_field"
)

// Merge applies sources left to right. A candidate fills a field only when
// the field is still empty and the candidate value is not; earlier sources
// therefore win. The returned map records which source filled each field.
func Merge(vocabulary []string, sources ...Source) (*Fields, map[string]string) {
	fields := NewFields(vocabulary)
	provenance := make(map[string]string)

	for _, src := range sources {
		for _, c := range src.Candidates {
			value := strings.TrimSpace(c.Value)
			if value == "" || !fields.Has(c.Field) || fields.Get(c.Field) != "" {
				continue
			}
			fields.Set(c.Field, value)
			provenance[c.Field] = src.Name
		}
	}

	return fields, provenance
}

// FieldsSource turns an extracted field set into a merge source
func FieldsSource(name string, fields *Fields) Source {
	src := Source{Name: name}
	for _, field := range fields.Names() {
		src.Candidates = append(src.Candidates, Candidate{Field: field, Value: fields.Get(field)})
	}
	return src
}

// SignatureSource proposes the signer and signing date
func SignatureSource(sig Signature) Source {
	return Source{
		Name: SourceSignature,
		Candidates: []Candidate{
			{Field: vocab.FieldDigitalSignature, Value: sig.Signer},
			{Field: vocab.FieldDate, Value: sig.Date},
		},
	}
}

// FormFieldSource maps PDF form field names onto referral fields. Each form
// field is checked against every mapping entry in order; an entry applies
// when its substring occurs in the lower-cased field name.
func FormFieldSource(forms *extraction.FormFields, mapping []vocab.FormNameMapping) Source {
	src := Source{Name: SourceFormField}
	for _, f := range forms.Fields() {
		name := strings.ToLower(strings.TrimSpace(f.Name))
		for _, m := range mapping {
			if m.Contains == "" || !strings.Contains(name, strings.ToLower(m.Contains)) {
				continue
			}
			src.Candidates = append(src.Candidates, Candidate{Field: m.Field, Value: f.Value})
		}
	}
	return src
}
