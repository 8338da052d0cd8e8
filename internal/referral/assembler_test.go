package referral

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/extraction"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/pdftest"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/wrapper"
	"github.com/a3tai/mcp-clinical-pdf/internal/vocab"
)

func newTestAssembler(t *testing.T, opener wrapper.Opener, recognizer *fakeRecognizer) *Assembler {
	t.Helper()

	v := vocab.Default()
	rasterizer := &fakeRasterizer{}
	forms := extraction.NewFormExtractor(opener, extraction.FormConfig{InteractiveSubtypes: v.InteractiveAnnotationSubtypes}, nil)
	text := extraction.NewTextExtractor(opener, forms, rasterizer, recognizer, extraction.TextConfig{}, nil)
	scanned, err := NewScannedExtractor(rasterizer, recognizer, v, nil)
	require.NoError(t, err)

	return NewAssembler(forms, text, scanned, v, nil)
}

func TestAssembler_Assemble(t *testing.T) {
	path := pdftest.WriteFile(t, "referral.pdf", pdftest.Page{
		Lines: []pdftest.Line{
			{X: 72, Y: 740, Text: "Referral Form"},
			{X: 72, Y: 700, Text: "Digitally Signed by"},
			{X: 72, Y: 680, Text: "Dr. Jane Doe"},
			{X: 72, Y: 660, Text: "Date: 01-02-2024 10:00 IST"},
		},
		Widgets: []pdftest.Widget{
			{Name: "patient_name", Value: "Jane Roe", Rect: [4]float64{300, 600, 500, 620}},
			{Name: "contact_no", Value: "9876543210", Rect: [4]float64{300, 570, 500, 590}},
			{Name: "hospital", Value: "City Hospital", Rect: [4]float64{300, 540, 500, 560}},
		},
	})

	recognizer := &fakeRecognizer{text: "Patient Name: Ravi Kumar\nDiagnosis: Dengue"}
	a := newTestAssembler(t, wrapper.NewOpener(), recognizer)

	result, err := a.Assemble(context.Background(), path)
	require.NoError(t, err)

	_, err = uuid.Parse(result.ID)
	assert.NoError(t, err)
	assert.Equal(t, path, result.Path)
	assert.Equal(t, vocab.Default().ReferralFields, result.Fields.Names())

	assert.Equal(t, "Ravi Kumar", result.Fields.Get(vocab.FieldPatientName))
	assert.Equal(t, "Dengue", result.Fields.Get(vocab.FieldDiagnosis))
	assert.Equal(t, "Dr. Jane Doe", result.Fields.Get(vocab.FieldDigitalSignature))
	assert.Equal(t, "01-02-2024 10:00 IST", result.Fields.Get(vocab.FieldDate))
	assert.Equal(t, "9876543210", result.Fields.Get(vocab.FieldContact))
	assert.Equal(t, "City Hospital", result.Fields.Get(vocab.FieldHospitalName))

	assert.Equal(t, SourceScanned, result.Sources[vocab.FieldPatientName])
	assert.Equal(t, SourceSignature, result.Sources[vocab.FieldDate])
	assert.Equal(t, SourceFormField, result.Sources[vocab.FieldContact])

	assert.Equal(t, []string{vocab.FieldPatientID, vocab.FieldReferredTo}, result.Empty)
	assert.Equal(t, "Patient Name: Ravi Kumar\nDiagnosis: Dengue", result.FirstPageOCR)
	assert.Contains(t, result.FullText, "patient_name: Jane Roe")
	assert.Contains(t, result.FullText, "Digitally Signed by")
	assert.True(t, result.Referral)
	assert.Equal(t, "referral form", result.Keyword)
}

func TestAssembler_TextFailure(t *testing.T) {
	opener := wrapper.OpenerFunc(func(string) (wrapper.Document, error) {
		return nil, errors.New("broken file")
	})
	a := newTestAssembler(t, opener, &fakeRecognizer{text: "Age: 45"})

	result, err := a.Assemble(context.Background(), "/tmp/broken.pdf")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken file")
}

func TestAssembler_ReliableSubsetEmpty(t *testing.T) {
	path := pdftest.WriteFile(t, "complete.pdf", pdftest.Page{
		Lines: []pdftest.Line{
			{X: 72, Y: 740, Text: "Referral Form"},
			{X: 72, Y: 700, Text: "Digitally Signed by"},
			{X: 72, Y: 680, Text: "Dr. Jane Doe"},
			{X: 72, Y: 660, Text: "Date: 01-02-2024 10:00 IST"},
		},
	})

	recognizer := &fakeRecognizer{text: "Patient Name: Ravi Kumar\n" +
		"Patient ID: P-100\n" +
		"Contact: 9876543210\n" +
		"Hospital Name: City Hospital\n" +
		"Referred To: Cardiology\n" +
		"Diagnosis: Dengue"}
	a := newTestAssembler(t, wrapper.NewOpener(), recognizer)

	result, err := a.Assemble(context.Background(), path)
	require.NoError(t, err)

	assert.Empty(t, result.Empty)
	assert.NotNil(t, result.Empty)
}
