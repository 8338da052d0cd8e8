package report

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-clinical-pdf/internal/pdf"
)

// Analysis renders the outcome of an analyze request under the given
// display name. JSON output is the result itself.
func Analysis(format Format, name string, result *pdf.AnalyzeResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no analysis result to render")
	}
	if format == FormatJSON {
		return JSON(result)
	}

	var body string
	var err error
	switch {
	case result.Discharge != nil:
		body, err = Sections(format, name, result.Discharge.Sections)
	case result.Referral != nil:
		ref := *result.Referral
		ref.Path = name
		body, err = Referral(format, &ref)
	default:
		return "", fmt.Errorf("analysis of %s produced no report", name)
	}
	if err != nil {
		return "", err
	}

	header := analysisHeader(result)
	switch format {
	case FormatHTML:
		rendered, err := toHTML(header)
		if err != nil {
			return "", err
		}
		return rendered + body, nil
	default:
		return header + body, nil
	}
}

func analysisHeader(result *pdf.AnalyzeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document type: %s", result.Type)
	if result.Detected {
		if result.Keyword != "" {
			fmt.Fprintf(&b, " (detected by keyword %q)", result.Keyword)
		} else {
			b.WriteString(" (detected, no referral keyword found)")
		}
	}
	b.WriteString("\n\n")
	return b.String()
}
