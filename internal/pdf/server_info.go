package pdf

import (
	"fmt"
	"time"
)

const (
	// directoryListLimit caps the number of files listed in server info
	directoryListLimit = 100
	// directoryListTimeout bounds the directory walk for server info
	directoryListTimeout = 5 * time.Second
)

// AvailableTools describes the tools exposed by the MCP server
func AvailableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "discharge_summary_check",
			Description: "Check a discharge summary for the required clinical section headings",
			Usage: "Use this tool on discharge summaries. Every heading is reported as Present or Missing " +
				"with the pages it was found on and the heading text actually used in the document.",
			Parameters: "path (required): Path to the PDF file, threshold (optional): fuzzy match threshold 60-100, " +
				"format (optional): text, markdown, html or json",
		},
		{
			Name:        "referral_form_extract",
			Description: "Extract patient and referral fields from a referral form",
			Usage: "Use this tool on referral forms, scanned or digital. Fields that could not be detected " +
				"are listed explicitly; they are never guessed.",
			Parameters: "path (required): Path to the PDF file, mode (optional): assembled or text, " +
				"format (optional): text, markdown, html or json, debug (optional): include first page OCR text",
		},
		{
			Name:        "pdf_form_fields",
			Description: "List the interactive form fields of a PDF",
			Usage:       "Use this tool to see the raw name/value pairs found in widgets and annotations.",
			Parameters:  "path (required): Path to the PDF file",
		},
		{
			Name:        "pdf_page_text",
			Description: "Return the text of every page, using OCR for pages without a text layer",
			Usage:       "Use this tool to inspect what the matchers see for each page, or to locate one heading.",
			Parameters: "path (required): Path to the PDF file, heading (optional): return only the first matching line, " +
				"threshold (optional): fuzzy match threshold 60-100",
		},
		{
			Name:        "detect_document_type",
			Description: "Classify a PDF as a referral form or a discharge summary",
			Usage:       "Use this tool when the document type is unknown before choosing a check.",
			Parameters:  "path (required): Path to the PDF file",
		},
		{
			Name:        "pdf_validate_file",
			Description: "Validate if a file is a readable PDF",
			Usage:       "Use this tool to check a file before running a check on it.",
			Parameters:  "path (required): Path to the PDF file",
		},
		{
			Name:        "pdf_server_info",
			Description: "Get server information, available tools, directory contents, and usage guidance",
			Usage:       "Use this tool first to discover the configured directory and the checks available.",
			Parameters:  "none",
		},
	}
}

// ServerInfo returns server information and usage guidance
func (s *Service) ServerInfo(serverName, version string) *ServerInfoResult {
	directory := s.pathValidator.Directory()

	result := &ServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  directory,
		MaxFileSize:       s.maxFileSize,
		DefaultThreshold:  s.threshold,
		OCRAvailable:      s.ocrAvailable(),
		Headings:          s.vocab.HeadingNames(),
		ReferralFields:    append([]string(nil), s.vocab.ReferralFields...),
		AvailableTools:    AvailableTools(),
		DirectoryContents: s.listDirectory(directory),
		UsageGuidance:     s.usageGuidance(),
	}

	return result
}

// listDirectory lists the configured directory without letting a slow
// filesystem hold up the response
func (s *Service) listDirectory(directory string) []FileInfo {
	resultChan := make(chan []FileInfo, 1)
	go func() {
		files, err := s.validator.ListPDFs(directory, directoryListLimit)
		if err != nil {
			s.log.Debug("Directory listing failed", "directory", directory, "error", err)
			files = []FileInfo{}
		}
		resultChan <- files
	}()

	select {
	case files := <-resultChan:
		return files
	case <-time.After(directoryListTimeout):
		s.log.Warn("Directory listing timed out", "directory", directory)
		return []FileInfo{}
	}
}

func (s *Service) ocrAvailable() bool {
	checker, ok := s.rasterizer.(interface{ Available() error })
	if !ok {
		return true
	}
	return checker.Available() == nil
}

func (s *Service) usageGuidance() string {
	return `Clinical PDF Checker Usage Guide:

1. START WITH DISCOVERY:
   - Use 'pdf_server_info' to list the PDF files in the configured directory
   - Use 'detect_document_type' when you do not know whether a file is a referral form

2. DISCHARGE SUMMARIES:
   - Use 'discharge_summary_check' to report each required section as Present or Missing
   - Lower the threshold (minimum 60) for noisy scans, raise it (maximum 100) for exact headings

3. REFERRAL FORMS:
   - Use 'referral_form_extract' to read patient, referral and signature fields
   - Fields reported as "Not detected" were checked and not found

4. TROUBLESHOOTING:
   - Use 'pdf_page_text' to see the text each check works on
   - Use 'pdf_form_fields' to see raw form field values

IMPORTANT NOTES:
- Relative paths are resolved against the configured directory
- The server can handle files up to ` + fmt.Sprintf("%d", s.maxFileSize/(1024*1024)) + `MB
- Pages without a text layer are recognized with OCR, which needs pdftoppm and tesseract
- No clinical correctness is verified, only presence of content`
}
