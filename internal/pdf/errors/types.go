package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ExtractionError describes a failure while recovering text or fields from a PDF.
type ExtractionError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	Err         error     `json:"-"`
}

// ErrorType represents the stage of the extraction pipeline that failed
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeDocumentOpen
	ErrorTypeMalformedDocument
	ErrorTypeTextExtraction
	ErrorTypeInvalidForm
	ErrorTypeInvalidAnnotation
	ErrorTypeContentStream
	ErrorTypeRasterize
	ErrorTypeOCR
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// Error implements the error interface
func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.PageNumber > 0 {
		msg = fmt.Sprintf("%s (page %d)", msg, e.PageNumber)
	}
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

// Unwrap exposes the underlying cause
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeDocumentOpen:
		return "DOCUMENT_OPEN"
	case ErrorTypeMalformedDocument:
		return "MALFORMED_DOCUMENT"
	case ErrorTypeTextExtraction:
		return "TEXT_EXTRACTION"
	case ErrorTypeInvalidForm:
		return "INVALID_FORM"
	case ErrorTypeInvalidAnnotation:
		return "INVALID_ANNOTATION"
	case ErrorTypeContentStream:
		return "CONTENT_STREAM"
	case ErrorTypeRasterize:
		return "RASTERIZE"
	case ErrorTypeOCR:
		return "OCR"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeDocumentOpen, ErrorTypeMalformedDocument, ErrorTypeTextExtraction:
		return SeverityCritical
	case ErrorTypeRasterize, ErrorTypeOCR:
		return SeverityError
	case ErrorTypeInvalidForm, ErrorTypeInvalidAnnotation, ErrorTypeContentStream:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// IsRecoverable reports whether processing of the document can continue after
// an error of this type. Per-annotation and per-form failures are skipped; a
// failed text layer aborts the document.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeInvalidForm, ErrorTypeInvalidAnnotation, ErrorTypeContentStream:
		return true
	default:
		return false
	}
}

// NewExtractionError creates a new ExtractionError
func NewExtractionError(errorType ErrorType, message string) *ExtractionError {
	return &ExtractionError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// WrapError wraps a standard error as an ExtractionError
func WrapError(errorType ErrorType, err error) *ExtractionError {
	e := NewExtractionError(errorType, err.Error())
	e.Err = err
	return e
}

// WithContext adds context to an existing ExtractionError
func (e *ExtractionError) WithContext(context string) *ExtractionError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing ExtractionError
func (e *ExtractionError) WithFile(filePath string) *ExtractionError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing ExtractionError
func (e *ExtractionError) WithPage(pageNumber int) *ExtractionError {
	e.PageNumber = pageNumber
	return e
}

// GetSeverity returns the severity of this specific error
func (e *ExtractionError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// IsCritical returns true if this error is critical
func (e *ExtractionError) IsCritical() bool {
	return e.GetSeverity() == SeverityCritical
}

// AsExtractionError unwraps err into an *ExtractionError when possible
func AsExtractionError(err error) (*ExtractionError, bool) {
	var target *ExtractionError
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsType reports whether err is an ExtractionError of the given type
func IsType(err error, errorType ErrorType) bool {
	e, ok := AsExtractionError(err)
	return ok && e.Type == errorType
}

// ErrorCollection gathers the tolerated failures of a single extraction run
type ErrorCollection struct {
	Errors   []*ExtractionError `json:"errors"`
	Warnings []*ExtractionError `json:"warnings"`
	FilePath string             `json:"file_path,omitempty"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection(filePath string) *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*ExtractionError, 0),
		Warnings: make([]*ExtractionError, 0),
		FilePath: filePath,
	}
}

// Add adds an error to the appropriate collection based on severity
func (ec *ErrorCollection) Add(err *ExtractionError) {
	if err.FilePath == "" && ec.FilePath != "" {
		err.FilePath = ec.FilePath
	}

	severity := err.GetSeverity()
	if severity == SeverityWarning || severity == SeverityInfo {
		ec.Warnings = append(ec.Warnings, err)
	} else {
		ec.Errors = append(ec.Errors, err)
	}
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}
