// Package referral extracts referral form fields from page text, from OCR of
// scanned forms and from PDF form fields, and merges the results.
package referral

import (
	"bytes"
	"encoding/json"
)

// Fields maps a fixed field vocabulary to extracted values. Every vocabulary
// field is always present; an empty string means "checked, not found".
type Fields struct {
	names  []string
	values map[string]string
}

// NewFields creates a field set with every vocabulary field empty
func NewFields(vocabulary []string) *Fields {
	f := &Fields{values: make(map[string]string, len(vocabulary))}
	for _, name := range vocabulary {
		if _, dup := f.values[name]; dup {
			continue
		}
		f.names = append(f.names, name)
		f.values[name] = ""
	}
	return f
}

// Names returns the vocabulary in order
func (f *Fields) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Get returns the value of a field; unknown fields read as empty
func (f *Fields) Get(name string) string {
	return f.values[name]
}

// Has reports whether name is part of the vocabulary
func (f *Fields) Has(name string) bool {
	_, ok := f.values[name]
	return ok
}

// Set stores a value for a vocabulary field. Fields outside the vocabulary
// are ignored and Set returns false.
func (f *Fields) Set(name, value string) bool {
	if !f.Has(name) {
		return false
	}
	f.values[name] = value
	return true
}

// Empty returns, in vocabulary order, the fields without a value
func (f *Fields) Empty() []string {
	return f.EmptyOf(f.names)
}

// EmptyOf returns the fields of subset that have no value
func (f *Fields) EmptyOf(subset []string) []string {
	empty := []string{}
	for _, name := range subset {
		if f.values[name] == "" {
			empty = append(empty, name)
		}
	}
	return empty
}

// Map returns a copy of the values
func (f *Fields) Map() map[string]string {
	m := make(map[string]string, len(f.values))
	for k, v := range f.values {
		m[k] = v
	}
	return m
}

// MarshalJSON writes the fields as an object in vocabulary order
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range f.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
