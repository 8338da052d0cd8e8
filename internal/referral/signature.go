package referral

import (
	"regexp"
	"strings"
)

const (
	signatureMarker = "digitally signed by"
	dateMarker      = "date:"
	// dateWindow is the number of lines after the signature line searched
	// for the signing date
	dateWindow = 3
)

// dateRe captures a numeric date, an optional time and an optional time zone
var dateRe = regexp.MustCompile(`(?i)date:?\s*([0-9.-]+\s*(?:[0-9:]+)?\s*(?:IST|UTC|GMT)?)`)

// Signature is the result of a digital signature scan
type Signature struct {
	Signer string `json:"signer"`
	Date   string `json:"date"`
}

// FindSignature looks for a "digitally signed by" line. The line after it is
// the signer; the signing date is read from the first "date:" line within the
// next three lines. Every signature line is considered, later ones win.
func FindSignature(text string) Signature {
	var sig Signature
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), signatureMarker) {
			continue
		}
		if i+1 < len(lines) {
			sig.Signer = strings.TrimSpace(lines[i+1])
		}
		for j := i + 1; j < len(lines) && j <= i+dateWindow; j++ {
			if !strings.Contains(strings.ToLower(lines[j]), dateMarker) {
				continue
			}
			if date := parseDate(lines[j]); date != "" {
				sig.Date = date
			}
			break
		}
	}

	return sig
}

// ScanSignature is the document-wide variant used when assembling a referral
// report: the line after any "digitally signed by" line is the signer and any
// other line containing "date:" supplies the date. Later matches overwrite
// earlier ones.
func ScanSignature(text string) Signature {
	var sig Signature
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, signatureMarker):
			if i+1 < len(lines) {
				sig.Signer = strings.TrimSpace(lines[i+1])
			}
		case strings.Contains(lower, dateMarker):
			if date := parseDate(line); date != "" {
				sig.Date = date
			}
		}
	}

	return sig
}

func parseDate(line string) string {
	m := dateRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
