package referral

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-clinical-pdf/internal/ocr"
	"github.com/a3tai/mcp-clinical-pdf/internal/vocab"
)

func newTestScanned(t *testing.T, rasterizer *fakeRasterizer, recognizer *fakeRecognizer) *ScannedExtractor {
	t.Helper()
	se, err := NewScannedExtractor(rasterizer, recognizer, nil, nil)
	require.NoError(t, err)
	return se
}

func TestScannedExtractor_Parse(t *testing.T) {
	se := newTestScanned(t, &fakeRasterizer{}, &fakeRecognizer{})

	tests := []struct {
		name string
		text string
		want map[string]string
	}{
		{
			name: "labelled lines",
			text: "Patient Name: Ravi Kumar | Force Type: Army\n" +
				"Age: 45 Gender: M\n" +
				"Contact: 9876543210 Email: ravi@example.com\n" +
				"Clinical Notes: fever for 3 days",
			want: map[string]string{
				vocab.FieldPatientName: "Ravi Kumar",
				vocab.FieldAge:         "45",
				vocab.FieldGender:      "Male",
				vocab.FieldContact:     "9876543210 | Email ID: ravi@example.com",
				vocab.FieldDiagnosis:   "fever for 3 days",
			},
		},
		{
			name: "female",
			text: "Sex: Female",
			want: map[string]string{vocab.FieldGender: "Female"},
		},
		{
			name: "email only contact",
			text: "Email: ravi@example.com",
			want: map[string]string{vocab.FieldContact: "ravi@example.com"},
		},
		{
			name: "bare phone number",
			text: "9876543210\nDengue",
			want: map[string]string{vocab.FieldContact: "9876543210"},
		},
		{
			name: "value on next line",
			text: "Diagnosis: Clinical Notes:\nDengue fever",
			want: map[string]string{vocab.FieldDiagnosis: "Dengue fever"},
		},
		{
			name: "next line is a label",
			text: "Diagnosis: Clinical Notes:\nAge: 45",
			want: map[string]string{
				vocab.FieldDiagnosis: "",
				vocab.FieldAge:       "45",
			},
		},
		{
			name: "referral routing",
			text: "Referred By: Dr. Mehta | Unit 4\nReferred To: City Hospital",
			want: map[string]string{
				vocab.FieldReferredBy: "Dr. Mehta",
				vocab.FieldReferredTo: "City Hospital",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := se.Parse(tt.text)

			assert.Equal(t, vocab.Default().ReferralFields, fields.Names())
			for field, value := range tt.want {
				assert.Equal(t, value, fields.Get(field), field)
			}
		})
	}
}

func TestScannedExtractor_Extract(t *testing.T) {
	rasterizer := &fakeRasterizer{}
	recognizer := &fakeRecognizer{text: "Patient Name: Ravi Kumar\r\nAge: 45\r\n"}
	se := newTestScanned(t, rasterizer, recognizer)

	fields, text := se.Extract(context.Background(), "/tmp/form.pdf")

	assert.Equal(t, "Ravi Kumar", fields.Get(vocab.FieldPatientName))
	assert.Equal(t, "45", fields.Get(vocab.FieldAge))
	assert.Equal(t, "Patient Name: Ravi Kumar\nAge: 45\n", text)
	assert.Equal(t, []int{1}, rasterizer.pages)
	assert.Equal(t, []float64{DefaultScanZoom}, rasterizer.zooms)
	assert.Equal(t, []ocr.PageSegMode{ocr.PageSegAuto}, recognizer.modes)
}

func TestScannedExtractor_ExtractFailures(t *testing.T) {
	tests := []struct {
		name       string
		rasterizer *fakeRasterizer
		recognizer *fakeRecognizer
	}{
		{
			name:       "rasterize_error",
			rasterizer: &fakeRasterizer{err: errors.New("pdftoppm missing")},
			recognizer: &fakeRecognizer{text: "Age: 45"},
		},
		{
			name:       "ocr_error",
			rasterizer: &fakeRasterizer{},
			recognizer: &fakeRecognizer{err: errors.New("tesseract failed")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := newTestScanned(t, tt.rasterizer, tt.recognizer)

			fields, text := se.Extract(context.Background(), "/tmp/form.pdf")

			assert.Empty(t, text)
			assert.Equal(t, vocab.Default().ReferralFields, fields.Names())
			assert.Equal(t, vocab.Default().ReferralFields, fields.Empty())
		})
	}
}

func TestNewScannedExtractor_InvalidPattern(t *testing.T) {
	v := vocab.Default()
	v.ScannedPatterns = []vocab.FieldPatterns{{Field: vocab.FieldAge, Patterns: []string{`age (`}}}

	_, err := NewScannedExtractor(&fakeRasterizer{}, &fakeRecognizer{}, v, nil)
	assert.Error(t, err)
}

func TestNormalizeGender(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"M":        "Male",
		"male":     "Male",
		"F":        "Female",
		"Female":   "Female",
		"F / 32":   "Female",
		"Other":    "Other",
		"Mr. Ravi": "Mr. Ravi",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeGender(in), in)
	}
}
