package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExtractionError
		want string
	}{
		{
			name: "message only",
			err:  NewExtractionError(ErrorTypeTextExtraction, "text layer unavailable"),
			want: "[TEXT_EXTRACTION] text layer unavailable",
		},
		{
			name: "with page and context",
			err:  NewExtractionError(ErrorTypeOCR, "recognition failed").WithPage(3).WithContext("engine busy"),
			want: "[OCR] recognition failed (page 3): engine busy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestExtractionError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := fmt.Errorf("analyze: %w", WrapError(ErrorTypeDocumentOpen, cause).WithFile("/tmp/a.pdf"))

	assert.ErrorIs(t, err, cause)

	extracted, ok := AsExtractionError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeDocumentOpen, extracted.Type)
	assert.Equal(t, "/tmp/a.pdf", extracted.FilePath)
	assert.True(t, IsType(err, ErrorTypeDocumentOpen))
	assert.False(t, IsType(err, ErrorTypeOCR))
}

func TestErrorType_Recoverable(t *testing.T) {
	assert.True(t, ErrorTypeInvalidAnnotation.IsRecoverable())
	assert.True(t, ErrorTypeInvalidForm.IsRecoverable())
	assert.False(t, ErrorTypeTextExtraction.IsRecoverable())
	assert.False(t, ErrorTypeDocumentOpen.IsRecoverable())
	assert.Equal(t, "UNKNOWN", ErrorType(99).String())
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection("/tmp/form.pdf")
	assert.Equal(t, "No errors or warnings", ec.Summary())

	ec.Add(NewExtractionError(ErrorTypeInvalidAnnotation, "bad rect"))
	ec.Add(NewExtractionError(ErrorTypeRasterize, "pdftoppm missing"))

	errs, warns := ec.Count()
	assert.Equal(t, 1, errs)
	assert.Equal(t, 1, warns)
	assert.Equal(t, "/tmp/form.pdf", ec.Warnings[0].FilePath)
	assert.Equal(t, "Found 1 error(s) and 1 warning(s)", ec.Summary())
}
