package pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/a3tai/mcp-clinical-pdf/internal/matching"
	"github.com/a3tai/mcp-clinical-pdf/internal/pdf/extraction"
	"github.com/a3tai/mcp-clinical-pdf/internal/referral"
)

// DocumentType is the kind of clinical document being checked
type DocumentType string

const (
	DocumentTypeAuto             DocumentType = "auto"
	DocumentTypeDischargeSummary DocumentType = "discharge_summary"
	DocumentTypeReferralForm     DocumentType = "referral_form"
)

// ParseDocumentType accepts the canonical names and the short forms
// "discharge" and "referral". An empty name selects auto detection.
func ParseDocumentType(name string) (DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return DocumentTypeAuto, nil
	case "discharge", "discharge_summary":
		return DocumentTypeDischargeSummary, nil
	case "referral", "referral_form":
		return DocumentTypeReferralForm, nil
	default:
		return "", fmt.Errorf("unsupported document type %q (must be one of: discharge_summary, referral_form, auto)", name)
	}
}

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// PathRequest names a single document
type PathRequest struct {
	Path string `json:"path"`
}

// DischargeSummaryRequest asks for a section presence check. A zero
// threshold selects the configured default.
type DischargeSummaryRequest struct {
	Path      string `json:"path"`
	Threshold int    `json:"threshold,omitempty"`
}

// FindSectionRequest asks for the first line matching a heading. A zero
// threshold selects the configured default.
type FindSectionRequest struct {
	Path      string `json:"path"`
	Heading   string `json:"heading"`
	Threshold int    `json:"threshold,omitempty"`
}

// AnalyzeRequest asks for the check matching the document type
type AnalyzeRequest struct {
	Path      string       `json:"path"`
	Type      DocumentType `json:"type"`
	Threshold int          `json:"threshold,omitempty"`
}

// Response Types

// DischargeSummaryResult is the section report of a discharge summary
type DischargeSummaryResult struct {
	ID        string                   `json:"id"`
	Path      string                   `json:"path"`
	Threshold int                      `json:"threshold"`
	Pages     []extraction.PageText    `json:"-"`
	PageCount int                      `json:"page_count"`
	OCRPages  []int                    `json:"ocr_pages"`
	Sections  []matching.SectionResult `json:"sections"`
	Missing   []string                 `json:"missing"`
	Duration  time.Duration            `json:"duration"`
}

// ReferralTextResult holds referral fields read from the text layer only
type ReferralTextResult struct {
	Path   string              `json:"path"`
	Result referral.TextResult `json:"result"`
}

// FormFieldsResult lists the form fields of a document in discovery order
type FormFieldsResult struct {
	Path   string                 `json:"path"`
	Fields []extraction.FormField `json:"fields"`
	// Skipped counts discovery steps that failed on some page
	Skipped int `json:"skipped_steps"`
}

// PageTextResult holds the recovered text of every page
type PageTextResult struct {
	Path  string                `json:"path"`
	Pages []extraction.PageText `json:"pages"`
}

// SectionMatch is the first line of a document matching a heading. Page and
// Line are empty when nothing matched.
type SectionMatch struct {
	Path      string                `json:"path"`
	Heading   string                `json:"heading"`
	Threshold int                   `json:"threshold"`
	Found     bool                  `json:"found"`
	Page      int                   `json:"page,omitempty"`
	Line      string                `json:"line,omitempty"`
	Source    extraction.TextSource `json:"source,omitempty"`
}

// DetectResult is the outcome of document type detection
type DetectResult struct {
	Path    string       `json:"path"`
	Type    DocumentType `json:"type"`
	Keyword string       `json:"keyword,omitempty"`
}

// AnalyzeResult carries exactly one of Discharge or Referral
type AnalyzeResult struct {
	Type      DocumentType            `json:"type"`
	Detected  bool                    `json:"detected"`
	Keyword   string                  `json:"keyword,omitempty"`
	Discharge *DischargeSummaryResult `json:"discharge_summary,omitempty"`
	Referral  *referral.Result        `json:"referral_form,omitempty"`
}

// ValidateFileResult represents the result of PDF file validation
type ValidateFileResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	DefaultThreshold  int        `json:"default_threshold"`
	OCRAvailable      bool       `json:"ocr_available"`
	Headings          []string   `json:"headings"`
	ReferralFields    []string   `json:"referral_fields"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
