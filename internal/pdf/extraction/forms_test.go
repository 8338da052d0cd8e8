package extraction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/pdftest"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/wrapper"
)

func TestFormFields_Set(t *testing.T) {
	tests := []struct {
		name      string
		existing  []FormField
		incoming  FormField
		changed   bool
		wantValue string
	}{
		{
			name:      "new_name_added",
			incoming:  FormField{Name: "patient_name", Value: "Jane"},
			changed:   true,
			wantValue: "Jane",
		},
		{
			name:      "values_and_names_trimmed",
			incoming:  FormField{Name: "  patient_name ", Value: "  Jane  "},
			changed:   true,
			wantValue: "Jane",
		},
		{
			name:      "empty_value_filled",
			existing:  []FormField{{Name: "patient_name", Value: ""}},
			incoming:  FormField{Name: "patient_name", Value: "Jane"},
			changed:   true,
			wantValue: "Jane",
		},
		{
			name:      "non_empty_value_kept",
			existing:  []FormField{{Name: "patient_name", Value: "Jane"}},
			incoming:  FormField{Name: "patient_name", Value: "John"},
			changed:   false,
			wantValue: "Jane",
		},
		{
			name:      "empty_does_not_clear",
			existing:  []FormField{{Name: "patient_name", Value: "Jane"}},
			incoming:  FormField{Name: "patient_name", Value: ""},
			changed:   false,
			wantValue: "Jane",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := NewFormFields()
			for _, f := range tt.existing {
				fields.Set(f)
			}

			assert.Equal(t, tt.changed, fields.Set(tt.incoming))

			value, ok := fields.Get("patient_name")
			require.True(t, ok)
			assert.Equal(t, tt.wantValue, value)
			assert.Equal(t, 1, fields.Len())
		})
	}
}

func TestFormFields_BlankNameIgnored(t *testing.T) {
	fields := NewFormFields()
	assert.False(t, fields.Set(FormField{Name: "   ", Value: "x"}))
	assert.Equal(t, 0, fields.Len())
	assert.Empty(t, fields.Map())
}

func TestFormFields_KeepsDiscoveryOrder(t *testing.T) {
	fields := NewFormFields()
	fields.Set(FormField{Name: "b", Value: ""})
	fields.Set(FormField{Name: "a", Value: "1"})
	fields.Set(FormField{Name: "b", Value: "2"})

	got := fields.Fields()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name)
	assert.Equal(t, "2", got[0].Value)
	assert.Equal(t, "a", got[1].Name)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, fields.Map())
}

func TestFormExtractor_Extract(t *testing.T) {
	stampRect := wrapper.NewRectangle(72, 100, 200, 120)
	freeTextRect := wrapper.NewRectangle(72, 600, 300, 620)

	doc := &fakeDocument{pages: []fakePage{
		{
			widgets: []wrapper.Widget{
				{Name: " patient_name ", Value: ""},
				{Name: "hospital", Value: " City Hospital "},
				{Name: "", Value: "orphan value"},
			},
			annotations: []wrapper.Annotation{
				{Subtype: "Widget", Name: "patient_name", Value: "Jane Doe", Contents: "ignored"},
				{Subtype: "Text", Name: "ward", Contents: "B2"},
				{Subtype: "Stamp", Name: "approved_by", Rect: stampRect},
				{Subtype: "Square", Name: "not_a_field", Value: "x"},
				{Subtype: "FreeText", Contents: "Fever", Rect: freeTextRect},
			},
			rectText: map[wrapper.Rectangle]string{
				stampRect:                  "Dr. Rao",
				freeTextRect.BandAbove(20): " Provisional\nDiagnosis ",
			},
		},
		{
			content: []byte("q /Tx BMC BT (x) Tj ET EMC Q"),
			text:    "Referral Form\nhospital: Other Hospital\nReason: follow up",
		},
		{
			content: []byte("BT (no marker) Tj ET"),
			text:    "Contact: 9876543210",
		},
	}}

	fe := NewFormExtractor(&fakeOpener{doc: doc}, FormConfig{InteractiveSubtypes: interactiveSubtypes}, nil)
	fields := fe.Extract(doc)

	assert.Equal(t, map[string]string{
		"patient_name":          "Jane Doe",
		"hospital":              "City Hospital",
		"ward":                  "B2",
		"approved_by":           "Dr. Rao",
		"Provisional Diagnosis": "Fever",
	}, fields.Map())

	got := fields.Fields()
	require.Len(t, got, 5)
	assert.Equal(t, "patient_name", got[0].Name)
	assert.Equal(t, MethodAnnotation, got[0].Method)
	assert.Equal(t, MethodWidget, got[1].Method)
	assert.Equal(t, MethodLabelProximity, got[4].Method)
	assert.Equal(t, 0, doc.closed, "Extract must not close a caller-owned document")
}

func TestFormExtractor_ContentStreamMethod(t *testing.T) {
	doc := &fakeDocument{pages: []fakePage{{
		content: []byte("/Tx BMC\nBT (Jane) Tj ET\nEMC"),
		text:    "Referral Form\nPatient Name: Jane Doe\nAge: 45",
	}}}

	fe := NewFormExtractor(&fakeOpener{doc: doc}, FormConfig{}, nil)
	fields := fe.Extract(doc)

	value, ok := fields.Get("Patient Name")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", value)
	assert.Equal(t, 1, fields.Len())
}

func TestFormExtractor_FailuresAreSkipped(t *testing.T) {
	boom := errors.New("boom")
	doc := &fakeDocument{pages: []fakePage{
		{widgetErr: boom, annotErr: boom, contentErr: boom},
		{widgets: []wrapper.Widget{{Name: "diagnosis", Value: "Dengue"}}},
	}}

	fe := NewFormExtractor(&fakeOpener{doc: doc}, FormConfig{InteractiveSubtypes: interactiveSubtypes}, nil)
	fields := fe.Extract(doc)

	assert.Equal(t, map[string]string{"diagnosis": "Dengue"}, fields.Map())
	assert.Equal(t, 3, fields.Skipped())
}

func TestFormExtractor_ExtractFile(t *testing.T) {
	t.Run("open_failure_returns_empty", func(t *testing.T) {
		opener := &fakeOpener{err: errors.New("not a pdf")}
		fields := NewFormExtractor(opener, FormConfig{}, nil).ExtractFile("/tmp/bad.pdf")
		assert.Equal(t, 0, fields.Len())
	})

	t.Run("document_closed", func(t *testing.T) {
		doc := &fakeDocument{pages: []fakePage{{widgets: []wrapper.Widget{{Name: "a", Value: "b"}}}}}
		fields := NewFormExtractor(&fakeOpener{doc: doc}, FormConfig{}, nil).ExtractFile("/tmp/form.pdf")
		assert.Equal(t, 1, fields.Len())
		assert.Equal(t, 1, doc.closed)
	})
}

func TestFormExtractor_RealDocument(t *testing.T) {
	path := pdftest.WriteFile(t, "referral.pdf", pdftest.Page{
		Lines: []pdftest.Line{
			{X: 72, Y: 720, Text: "Referral Form"},
			{X: 72, Y: 625, Text: "Diagnosis"},
		},
		Widgets: []pdftest.Widget{
			{Name: "patient_name", Value: "Jane Doe", Rect: [4]float64{72, 680, 300, 700}},
		},
		FreeTexts: []pdftest.FreeText{
			{Contents: "Dengue fever", Rect: [4]float64{72, 600, 300, 620}},
		},
	})

	fe := NewFormExtractor(wrapper.NewOpener(), FormConfig{InteractiveSubtypes: interactiveSubtypes}, nil)
	fields := fe.ExtractFile(path)

	value, ok := fields.Get("patient_name")
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", value)

	value, ok = fields.Get("Diagnosis")
	require.True(t, ok)
	assert.Equal(t, "Dengue fever", value)
}

func TestSplitLabelLine(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantLabel string
		wantValue string
		wantOK    bool
	}{
		{"first_colon_line", "Header\nName: Jane\nAge: 45", "Name", "Jane", true},
		{"value_keeps_later_colons", "Time: 10:30 IST", "Time", "10:30 IST", true},
		{"no_colon", "just text\nmore text", "", "", false},
		{"empty_value", "Name:\nAge: 45", "Name", "", false},
		{"empty_label", ": orphan", "", "orphan", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, value, ok := SplitLabelLine(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}
