// Package report renders section and referral results as plain text,
// Markdown, HTML or JSON.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/a3tai/mcp-clinical-pdf/internal/matching"
	"github.com/a3tai/mcp-clinical-pdf/internal/referral"
	"github.com/a3tai/mcp-clinical-pdf/internal/vocab"
)

// Format selects the output representation
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

const (
	markPresent = "✓"
	markMissing = "❌"
	notDetected = "Not detected"
)

// ParseFormat maps a format name to a Format. An empty name selects text.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	case FormatText, FormatMarkdown, FormatHTML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be one of: text, markdown, html, json)", name)
	}
}

// sectionReport is the JSON shape of a discharge summary report
type sectionReport struct {
	Path     string                   `json:"path"`
	Sections []matching.SectionResult `json:"sections"`
	Missing  []string                 `json:"missing"`
}

// Sections renders the section presence table of a discharge summary
func Sections(format Format, path string, results []matching.SectionResult) (string, error) {
	switch format {
	case FormatText, "":
		return sectionsText(path, results), nil
	case FormatMarkdown:
		return sectionsMarkdown(path, results), nil
	case FormatHTML:
		return toHTML(sectionsMarkdown(path, results))
	case FormatJSON:
		return JSON(sectionReport{Path: path, Sections: results, Missing: matching.Missing(results)})
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func sectionsText(path string, results []matching.SectionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Discharge summary check: %s\n\n", path)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Section\tStatus\tPages\tHeadings Used")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Heading, r.Status, r.PagesString(), r.HeadingsString())
	}
	_ = tw.Flush()

	if missing := matching.Missing(results); len(missing) > 0 {
		fmt.Fprintf(&b, "\nMissing sections: %s\n", strings.Join(missing, ", "))
	} else {
		b.WriteString("\nAll sections present\n")
	}
	return b.String()
}

func sectionsMarkdown(path string, results []matching.SectionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Discharge summary check\n\nFile: `%s`\n\n", path)
	b.WriteString("| Section | Status | Pages | Headings Used |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range results {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			cell(r.Heading), r.Status, r.PagesString(), cell(r.HeadingsString()))
	}

	if missing := matching.Missing(results); len(missing) > 0 {
		fmt.Fprintf(&b, "\n**Missing sections:** %s\n", strings.Join(missing, ", "))
	}
	return b.String()
}

// Referral renders an assembled referral report
func Referral(format Format, result *referral.Result) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no referral result to render")
	}

	switch format {
	case FormatText, "":
		return referralText(result, false), nil
	case FormatMarkdown:
		return referralText(result, true), nil
	case FormatHTML:
		return toHTML(referralText(result, true))
	case FormatJSON:
		return JSON(result)
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

// FieldLines renders one line per field: the signature and signing date
// first as a confirmation block, then the remaining fields in order
func FieldLines(fields *referral.Fields) []string {
	lines := []string{
		fieldLine("Digitally signed by", vocab.FieldDigitalSignature, fields.Get(vocab.FieldDigitalSignature)),
		fieldLine("Signed on", vocab.FieldDate, fields.Get(vocab.FieldDate)),
	}

	for _, name := range fields.Names() {
		if name == vocab.FieldDigitalSignature || name == vocab.FieldDate {
			continue
		}
		lines = append(lines, fieldLine(name, name, fields.Get(name)))
	}
	return lines
}

func fieldLine(label, field, value string) string {
	if value == "" {
		return fmt.Sprintf("%s %s: %s", markMissing, field, notDetected)
	}
	return fmt.Sprintf("%s %s: %s", markPresent, label, value)
}

func referralText(result *referral.Result, markdown bool) string {
	var b strings.Builder
	if markdown {
		fmt.Fprintf(&b, "## Referral form\n\nFile: `%s`\n\n", result.Path)
	} else {
		fmt.Fprintf(&b, "Referral form: %s\n\n", result.Path)
	}

	for _, line := range FieldLines(result.Fields) {
		if markdown {
			b.WriteString("- ")
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if len(result.Empty) > 0 {
		if markdown {
			fmt.Fprintf(&b, "\n**Fields not detected:** %s\n", strings.Join(result.Empty, ", "))
		} else {
			fmt.Fprintf(&b, "\nFields not detected: %s\n", strings.Join(result.Empty, ", "))
		}
	}
	return b.String()
}

// TextFields renders fields recovered from the text layer
func TextFields(result referral.TextResult) string {
	var b strings.Builder
	for _, line := range FieldLines(result.Fields) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// htmlPolicy strips anything but plain formatting and tables. Report cells
// carry text read from untrusted documents.
var htmlPolicy = bluemonday.UGCPolicy()

func toHTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}

// JSON renders v as indented JSON
func JSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return string(data), nil
}

// cell escapes the table separator inside a Markdown table cell
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
