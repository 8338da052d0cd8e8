// Package vocab holds the fixed heading, field, keyword and pattern tables the
// matchers run against. Adding a heading or a field is a data change: edit the
// defaults here or point the server at a YAML override file.
package vocab

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Section headings checked in discharge summaries
const (
	HeadingDischargeSummary = "Discharge Summary"
	HeadingDiagnosis        = "Diagnosis"
	HeadingInvestigation    = "Investigation"
	HeadingCultureReport    = "Culture Report"
	HeadingFinalDiagnosis   = "Final Diagnosis"
	HeadingHistory          = "History of Present Illness"
	HeadingHOPI             = "HOPI"
)

// Referral form fields
const (
	FieldPatientName      = "Patient Name"
	FieldPatientID        = "Patient ID"
	FieldAge              = "Age"
	FieldGender           = "Gender"
	FieldHospitalName     = "Hospital Name"
	FieldReferredBy       = "Referred By"
	FieldReferredTo       = "Referred To"
	FieldReferralReason   = "Referral Reason"
	FieldDiagnosis        = "Diagnosis"
	FieldDate             = "Date"
	FieldContact          = "Contact"
	FieldDigitalSignature = "Digital Signature"
)

// Heading is a section heading. AliasOf names the heading this one is an
// abbreviation of; aliases are still reported as their own row.
type Heading struct {
	Name    string `yaml:"name"`
	AliasOf string `yaml:"alias_of,omitempty"`
}

// FieldKeywords lists the label spellings that introduce a field in free text
type FieldKeywords struct {
	Field    string   `yaml:"field"`
	Keywords []string `yaml:"keywords"`
}

// FieldPatterns lists the regular expressions tried, in order, on OCR lines of
// scanned forms. The first capture group is the value.
type FieldPatterns struct {
	Field    string   `yaml:"field"`
	Patterns []string `yaml:"patterns"`
}

// FormNameMapping maps a substring of a lower-cased PDF form field name to a
// referral field
type FormNameMapping struct {
	Contains string `yaml:"contains"`
	Field    string `yaml:"field"`
}

// Vocabulary is the complete set of matching tables
type Vocabulary struct {
	Headings                      []Heading         `yaml:"headings"`
	ReferralKeywords              []FieldKeywords   `yaml:"referral_keywords"`
	ReferralFields                []string          `yaml:"referral_fields"`
	ScannedPatterns               []FieldPatterns   `yaml:"scanned_patterns"`
	FormFieldMapping              []FormNameMapping `yaml:"form_field_mapping"`
	ReliableFields                []string          `yaml:"reliable_fields"`
	ReferralDocumentKeywords      []string          `yaml:"referral_document_keywords"`
	InteractiveAnnotationSubtypes []string          `yaml:"interactive_annotation_subtypes"`
}

// Default returns the built-in vocabulary
func Default() *Vocabulary {
	return &Vocabulary{
		Headings: []Heading{
			{Name: HeadingDischargeSummary},
			{Name: HeadingDiagnosis},
			{Name: HeadingInvestigation},
			{Name: HeadingCultureReport},
			{Name: HeadingFinalDiagnosis},
			{Name: HeadingHistory},
			{Name: HeadingHOPI, AliasOf: HeadingHistory},
		},
		ReferralKeywords: []FieldKeywords{
			{Field: FieldPatientName, Keywords: []string{
				"patient name", "name of patient", "name", "pt. name", "patient's name", "name of the patient",
			}},
			{Field: FieldAge, Keywords: []string{"age", "patient age"}},
			{Field: FieldGender, Keywords: []string{"gender", "sex", "male", "female", "m/f"}},
			{Field: FieldReferredBy, Keywords: []string{
				"referred by", "referring doctor", "referring hospital", "refd by", "refd. by",
			}},
			{Field: FieldReferralReason, Keywords: []string{
				"referral reason", "reason for referral", "reason", "reason for ref.", "reason for ref",
			}},
			{Field: FieldDiagnosis, Keywords: []string{"diagnosis", "provisional diagnosis", "diagno"}},
			{Field: FieldDate, Keywords: []string{"date", "dt."}},
			{Field: FieldContact, Keywords: []string{
				"contact", "phone", "mobile", "tel", "contact no", "contact number",
			}},
			{Field: FieldDigitalSignature, Keywords: []string{
				"digitally signed by", "digital signature", "signed by",
			}},
		},
		ReferralFields: []string{
			FieldPatientName, FieldPatientID, FieldAge, FieldGender, FieldHospitalName,
			FieldReferredBy, FieldReferredTo, FieldReferralReason, FieldDiagnosis,
			FieldContact, FieldDigitalSignature, FieldDate,
		},
		ScannedPatterns: []FieldPatterns{
			{Field: FieldPatientName, Patterns: []string{
				`(?i)patient.*?name\s*[:\s]\s*(.+?)(?:\||$)`,
				`(?i)name\s*[:\s]\s*(.+?)(?:\||$)`,
			}},
			{Field: FieldPatientID, Patterns: []string{
				`(?i)patient\s*(?:id|number)\s*[:\s]\s*(.+?)(?:\||$)`,
				`(?i)(?:id|reg)\s*(?:no\.?|number)?\s*[:\s]\s*([A-Za-z0-9-]+)(?:\||$)`,
			}},
			{Field: FieldAge, Patterns: []string{
				`(?i)\bage\s*[:\s]\s*(\d{1,3})`,
			}},
			{Field: FieldGender, Patterns: []string{
				`(?i)\b(?:gender|sex)\s*[:\s]\s*(.+?)(?:\||$)`,
			}},
			{Field: FieldHospitalName, Patterns: []string{
				`(?i)hospital\s*(?:name)?\s*[:\s]\s*(.+?)(?:\||$)`,
				`(?i)facility\s*[:\s]\s*(.+?)(?:\||$)`,
				`(?i)located\s+within\s+the\s+AOR\s+of\s+(.+?)(?:\||$)`,
			}},
			{Field: FieldReferredBy, Patterns: []string{
				`(?i)referred\s+by\s*[:\s]\s*(.+?)(?:\||$)`,
				`(?i)refd\.?\s*by\s*[:\s]\s*(.+?)(?:\||$)`,
			}},
			{Field: FieldReferredTo, Patterns: []string{
				`(?i)referred\s+to\s*[:\s]\s*(.+?)(?:\||$)`,
				`(?i)ref\.\s*to\s*[:\s]\s*(.+?)(?:\||$)`,
			}},
			{Field: FieldReferralReason, Patterns: []string{
				`(?i)reason\s+for\s+referral\s*[:\s]\s*(.+?)(?:\||$)`,
				`(?i)referral\s+reason\s*[:\s]\s*(.+?)(?:\||$)`,
			}},
			{Field: FieldDiagnosis, Patterns: []string{
				`(?i)diagnosis\s*[:\s]\s*(.+?)(?:\||$)`,
				`(?i)clinical\s+notes\s*[:\s]\s*(.+?)(?:\||$)`,
			}},
			{Field: FieldContact, Patterns: []string{
				`(?i)contact\s*[:\s]\s*(.+?)(?:\||$)`,
				`(?i)phone\s*[:\s]\s*(\d+)`,
				`(?i)email\s*[:\s]\s*(\S+@\S+\.\S+)`,
				`\b\d{10}\b`,
				`(?i)(?:patient\s+)?email\s*[:\s]\s*(\S+@\S+\.\S+)`,
			}},
		},
		FormFieldMapping: []FormNameMapping{
			{Contains: "name", Field: FieldPatientName},
			{Contains: "patient", Field: FieldPatientName},
			{Contains: "pt", Field: FieldPatientName},
			{Contains: "patient_id", Field: FieldPatientID},
			{Contains: "id", Field: FieldPatientID},
			{Contains: "registration", Field: FieldPatientID},
			{Contains: "reg_no", Field: FieldPatientID},
			{Contains: "hospital", Field: FieldHospitalName},
			{Contains: "facility", Field: FieldHospitalName},
			{Contains: "referred_to", Field: FieldReferredTo},
			{Contains: "referredto", Field: FieldReferredTo},
			{Contains: "ref_to", Field: FieldReferredTo},
			{Contains: "diagnosis", Field: FieldDiagnosis},
			{Contains: "clinical_notes", Field: FieldDiagnosis},
			{Contains: "contact", Field: FieldContact},
			{Contains: "phone", Field: FieldContact},
			{Contains: "mobile", Field: FieldContact},
			{Contains: "tel", Field: FieldContact},
			{Contains: "email", Field: FieldContact},
		},
		ReliableFields: []string{
			FieldPatientName, FieldPatientID, FieldContact, FieldHospitalName,
			FieldReferredTo, FieldDiagnosis, FieldDigitalSignature, FieldDate,
		},
		ReferralDocumentKeywords: []string{
			"referral form", "referral", "referred by", "referring doctor", "referring hospital", "referral reason",
		},
		InteractiveAnnotationSubtypes: []string{
			"Widget", "FreeText", "Text", "Stamp", "FileAttachment",
		},
	}
}

// LoadFile reads a YAML vocabulary file. Sections present in the file replace
// the built-in section of the same name; absent sections keep their defaults.
func LoadFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	v := Default()
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}

	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vocabulary file %s: %w", path, err)
	}

	return v, nil
}

// Validate checks the tables for empty entries and uncompilable patterns
func (v *Vocabulary) Validate() error {
	if len(v.Headings) == 0 {
		return fmt.Errorf("at least one heading is required")
	}
	for i, h := range v.Headings {
		if strings.TrimSpace(h.Name) == "" {
			return fmt.Errorf("heading %d has an empty name", i)
		}
	}

	for _, fk := range v.ReferralKeywords {
		if fk.Field == "" {
			return fmt.Errorf("referral keyword entry without field")
		}
		if len(fk.Keywords) == 0 {
			return fmt.Errorf("field %q has no keywords", fk.Field)
		}
	}

	if _, err := v.CompilePatterns(); err != nil {
		return err
	}

	return nil
}

// HeadingNames returns the heading names in report order
func (v *Vocabulary) HeadingNames() []string {
	names := make([]string, 0, len(v.Headings))
	for _, h := range v.Headings {
		names = append(names, h.Name)
	}
	return names
}

// TextFields returns the free-text referral field vocabulary in order
func (v *Vocabulary) TextFields() []string {
	fields := make([]string, 0, len(v.ReferralKeywords))
	for _, fk := range v.ReferralKeywords {
		fields = append(fields, fk.Field)
	}
	return fields
}

// CompiledPatterns is a FieldPatterns entry with its expressions compiled
type CompiledPatterns struct {
	Field    string
	Patterns []*regexp.Regexp
}

// CompilePatterns compiles the scanned-form pattern table. Every pattern is
// matched case-insensitively.
func (v *Vocabulary) CompilePatterns() ([]CompiledPatterns, error) {
	compiled := make([]CompiledPatterns, 0, len(v.ScannedPatterns))
	for _, fp := range v.ScannedPatterns {
		entry := CompiledPatterns{Field: fp.Field}
		for _, p := range fp.Patterns {
			if !strings.HasPrefix(p, "(?i)") {
				p = "(?i)" + p
			}
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("field %q: invalid pattern %q: %w", fp.Field, p, err)
			}
			entry.Patterns = append(entry.Patterns, re)
		}
		compiled = append(compiled, entry)
	}
	return compiled, nil
}
