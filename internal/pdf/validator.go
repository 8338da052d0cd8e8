package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/wrapper"
)

// pdfMagic is the header every PDF file starts with
var pdfMagic = []byte("%PDF-")

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
	opener      wrapper.Opener
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64, opener wrapper.Opener) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
		opener:      opener,
	}
}

// ValidateFile reports whether the file is a readable PDF. Validation
// failures are part of the result, not an error.
func (v *Validator) ValidateFile(path string) *ValidateFileResult {
	result := &ValidateFileResult{Path: path}

	if err := v.validatePDFFile(path); err != nil {
		result.Message = err.Error()
		return result
	}

	result.Valid = true
	return result
}

// validatePDFFile checks the file on disk, its header, and that both PDF
// libraries can open it
func (v *Validator) validatePDFFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return err
	}

	if err := v.checkHeader(filePath); err != nil {
		return err
	}

	doc, err := v.opener.Open(filePath)
	if err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	defer doc.Close()

	if doc.NumPages() == 0 {
		return fmt.Errorf("PDF has no pages: %s", filePath)
	}

	return nil
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	return v.validatePDFFile(filePath) == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	return v.ValidateSize(fileInfo.Size())
}

// ValidateSize checks a file size against the configured limit
func (v *Validator) ValidateSize(size int64) error {
	if size == 0 {
		return fmt.Errorf("file is empty")
	}
	if size > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", size, v.maxFileSize)
	}
	return nil
}

func (v *Validator) checkHeader(filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 1024)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("cannot read file header: %w", err)
	}

	// The header may be preceded by a few bytes of garbage
	if !bytes.Contains(header[:n], pdfMagic) {
		return fmt.Errorf("file does not start with a PDF header: %s", filePath)
	}
	return nil
}
