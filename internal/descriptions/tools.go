package descriptions

// Tool descriptions with practical examples and use cases

const (
	// Clinical checks
	DischargeSummaryCheckDescription = `Check a hospital discharge summary for the required clinical section headings.

**When to use:** A discharge summary must be audited before it is filed or sent to the patient's next provider.

**Why it's useful:** Headings are matched fuzzily, so OCR noise, abbreviations and spelling variants ("FINAL DIAGNOSES", "Investigations") are still recognised. A longer heading such as "Final Diagnosis" is never also counted as "Diagnosis".

**Examples:**
• Audit a summary: "Check discharge-1042.pdf for missing sections"
• Stricter matching: "Check summary.pdf with threshold 90"
• Machine-readable output: "Check summary.pdf and return json"

**Common workflows:**
1. Filing: detect_document_type → discharge_summary_check → fix missing sections
2. Batch QA: pdf_server_info → discharge_summary_check for each listed file

**Best practices:** Keep the default threshold of 75 unless false positives appear. Scanned pages are OCR'd automatically and reported in the output.`

	ReferralFormExtractDescription = `Extract patient, referral and signature fields from a hospital referral form.

**When to use:** A referral form, digital or scanned, has to be turned into structured data or checked for completeness.

**Why it's useful:** Combines OCR of the first page, a digital signature check and the document's interactive form fields. Fields that cannot be found are reported as not detected and never guessed.

**Examples:**
• Intake: "Extract the patient name, age and referral reason from referral-77.pdf"
• Text layer only: "Extract referral.pdf with mode text"
• Troubleshooting: "Extract referral.pdf with debug true to see the OCR text"

**Common workflows:**
1. Intake: detect_document_type → referral_form_extract → create appointment
2. Troubleshooting: referral_form_extract → pdf_form_fields → pdf_page_text

**Best practices:** Use the assembled mode for scanned forms. Use debug only when fields are missing, it returns the full OCR text.`

	// Inspection tools
	PDFFormFieldsDescription = `List the interactive form fields of a PDF with their values.

**When to use:** Need the raw name/value pairs of a fillable form, or to see why a referral field was or was not detected.

**Why it's useful:** Reads AcroForm widgets, interactive annotations and the text printed next to field labels, and reports which method found each value and on which page.

**Examples:**
• Inspect a form: "List the form fields of referral.pdf"

**Best practices:** Fields without a value are omitted.`

	PDFPageTextDescription = `Return the text of every page of a PDF.

**When to use:** Need to see exactly what the section and field matchers see for each page.

**Why it's useful:** Pages without a usable text layer are rasterized and OCR'd, and every page is labelled with the source of its text.

**Examples:**
• Debug a missing section: "Show the page text of summary.pdf"
• Locate a heading: "On which page of summary.pdf is the Final Diagnosis?" (pass heading, optionally threshold)

**Best practices:** Expect OCR output to contain recognition noise on scanned pages.`

	DetectDocumentTypeDescription = `Classify a PDF as a referral form or a discharge summary.

**When to use:** The document type is unknown and the right check has to be chosen.

**Why it's useful:** Looks for referral keywords on the first page with fuzzy matching, falling back to OCR when the page has no text.

**Examples:**
• Routing: "What kind of document is upload-3.pdf?"

**Best practices:** Documents without a referral keyword are treated as discharge summaries.`

	PDFValidateFileDescription = `Verify PDF file integrity and readability before processing.

**When to use:** Before running a check on an uploaded or unknown file.

**Why it's useful:** Identifies missing, oversized, and corrupted files early, with a clear message.

**Examples:**
• Upload verification: "Check uploaded-summary.pdf is a valid PDF"

**Best practices:** Run this first in automated workflows.`

	PDFServerInfoDescription = `Get server information, available tools, directory contents, and usage guidance.

**When to use:** At the start of a session, to discover the configured directory, the checked sections and the referral fields.

**Why it's useful:** Lists the PDF files available, the default threshold and whether OCR is available on this host.

**Examples:**
• Discovery: "Which documents can I check?"

**Best practices:** Call this first, then use the listed paths with the other tools.`
)

// toolNames lists the tools in registration order
var toolNames = []string{
	"discharge_summary_check",
	"referral_form_extract",
	"pdf_form_fields",
	"pdf_page_text",
	"detect_document_type",
	"pdf_validate_file",
	"pdf_server_info",
}

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"discharge_summary_check": DischargeSummaryCheckDescription,
	"referral_form_extract":   ReferralFormExtractDescription,
	"pdf_form_fields":         PDFFormFieldsDescription,
	"pdf_page_text":           PDFPageTextDescription,
	"detect_document_type":    DetectDocumentTypeDescription,
	"pdf_validate_file":       PDFValidateFileDescription,
	"pdf_server_info":         PDFServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in registration order
func GetAllToolNames() []string {
	return append([]string(nil), toolNames...)
}
