package referral

import (
	"regexp"
	"strings"

	"github.com/a3tai/mcp-clinical-pdf/internal/matching"
	"github.com/a3tai/mcp-clinical-pdf/internal/vocab"
)

var (
	ageRe    = regexp.MustCompile(`\b(\d{1,3})\b`)
	genderRe = regexp.MustCompile(`\b(male|female|m|f)\b`)
)

// TextOptions configures ExtractFromText
type TextOptions struct {
	Vocabulary *vocab.Vocabulary
	// KeywordThreshold is the partial-ratio score a line must reach against a
	// field keyword. Zero selects matching.DefaultKeywordThreshold.
	KeywordThreshold int
}

// TextResult holds the fields recovered from page text
type TextResult struct {
	Fields *Fields  `json:"fields"`
	Empty  []string `json:"empty_fields"`
}

type keywordRule struct {
	keyword string
	value   *regexp.Regexp
}

type fieldRules struct {
	field    string
	keywords []keywordRule
}

// ExtractFromText recovers referral fields from free text. The result always
// carries every field of the keyword vocabulary.
func ExtractFromText(text string, opts TextOptions) TextResult {
	v := opts.Vocabulary
	if v == nil {
		v = vocab.Default()
	}
	threshold := opts.KeywordThreshold
	if threshold <= 0 {
		threshold = matching.DefaultKeywordThreshold
	}

	fields := NewFields(v.TextFields())
	lines := strings.Split(text, "\n")

	sig := FindSignature(text)
	fields.Set(vocab.FieldDigitalSignature, sig.Signer)
	fields.Set(vocab.FieldDate, sig.Date)

	rules := compileRules(v.ReferralKeywords)
	for i, line := range lines {
		lower := strings.ToLower(line)
		trimmed := strings.TrimSpace(lower)

		for _, fr := range rules {
			for _, kw := range fr.keywords {
				if fields.Get(fr.field) != "" {
					break
				}
				if matching.Score(kw.keyword, trimmed) < threshold {
					continue
				}

				value := captureValue(kw.value, line)
				if value == "" && i+1 < len(lines) {
					next := strings.TrimSpace(lines[i+1])
					if !mentionsField(next, fr, threshold) {
						value = next
					}
				}

				switch fr.field {
				case vocab.FieldAge:
					value = normalizeAge(value, lower)
				case vocab.FieldGender:
					if value == "" {
						if m := genderRe.FindStringSubmatch(lower); m != nil {
							value = m[1]
						}
					}
				}

				fields.Set(fr.field, value)
			}
		}
	}

	return TextResult{Fields: fields, Empty: fields.Empty()}
}

func compileRules(keywords []vocab.FieldKeywords) []fieldRules {
	rules := make([]fieldRules, 0, len(keywords))
	for _, fk := range keywords {
		fr := fieldRules{field: fk.Field}
		for _, kw := range fk.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			fr.keywords = append(fr.keywords, keywordRule{
				keyword: kw,
				value:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(kw) + `[\s:]*([\w\-/,. ]+)`),
			})
		}
		rules = append(rules, fr)
	}
	return rules
}

// captureValue matches the case-insensitive keyword rule against line and
// returns the trimmed capture in the line's own case
func captureValue(re *regexp.Regexp, line string) string {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// mentionsField reports whether line looks like another label of the same field
func mentionsField(line string, fr fieldRules, threshold int) bool {
	lower := strings.ToLower(line)
	for _, kw := range fr.keywords {
		if matching.Score(lower, kw.keyword) >= threshold {
			return true
		}
	}
	return false
}

// normalizeAge reduces an age value to its first 1 to 3 digit number, reading
// the whole line when the value has none
func normalizeAge(value, line string) string {
	if m := ageRe.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	if value != "" {
		return value
	}
	if m := ageRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}
