package extraction

import (
	"strings"
)

// Method identifies how a form field was discovered
type Method string

const (
	MethodWidget         Method = "widget"
	MethodAnnotation     Method = "annotation"
	MethodContentStream  Method = "content_stream"
	MethodLabelProximity Method = "label_proximity"
)

// FormField is a named value recovered from a PDF form. Name and Value are
// trimmed; Value is never nil, only empty.
type FormField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Method Method `json:"method"`
	Page   int    `json:"page"`
}

// FormFields is an insertion-ordered set of form fields keyed by name
type FormFields struct {
	fields  []FormField
	index   map[string]int
	skipped int
}

// NewFormFields creates an empty field set
func NewFormFields() *FormFields {
	return &FormFields{index: make(map[string]int)}
}

// Set merges a field into the set. A new name is appended. An existing name
// is replaced only when the existing value is empty and the new one is not;
// the field keeps its original position. Set reports whether the set changed.
func (f *FormFields) Set(field FormField) bool {
	field.Name = strings.TrimSpace(field.Name)
	field.Value = strings.TrimSpace(field.Value)
	if field.Name == "" {
		return false
	}

	i, exists := f.index[field.Name]
	if !exists {
		f.index[field.Name] = len(f.fields)
		f.fields = append(f.fields, field)
		return true
	}

	if f.fields[i].Value == "" && field.Value != "" {
		f.fields[i] = field
		return true
	}
	return false
}

// Get returns the value recorded for name
func (f *FormFields) Get(name string) (string, bool) {
	i, ok := f.index[name]
	if !ok {
		return "", false
	}
	return f.fields[i].Value, true
}

// Len returns the number of distinct names
func (f *FormFields) Len() int {
	return len(f.fields)
}

// Skipped returns the number of discovery steps that failed and were skipped
func (f *FormFields) Skipped() int {
	return f.skipped
}

// Fields returns a copy of the fields in discovery order
func (f *FormFields) Fields() []FormField {
	out := make([]FormField, len(f.fields))
	copy(out, f.fields)
	return out
}

// Map returns the fields as a name to value map
func (f *FormFields) Map() map[string]string {
	m := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		m[field.Name] = field.Value
	}
	return m
}

// TextSource records where the text of a page came from
type TextSource string

const (
	SourceTextLayer TextSource = "text_layer"
	SourceOCR       TextSource = "ocr"
)

// PageText is the recovered text of one page
type PageText struct {
	Number int        `json:"page"`
	Text   string     `json:"text"`
	Source TextSource `json:"source"`
}
