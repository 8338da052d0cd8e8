// Package matching locates clinical section headings in noisy page text with
// fuzzy partial-ratio scoring.
package matching

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/a3tai/mcp-clinical-pdf/internal/vocab"
)

const (
	DefaultThreshold        = 75
	MinThreshold            = 60
	MaxThreshold            = 100
	DefaultKeywordThreshold = 80
)

// Status is the presence of a heading in a document
type Status string

const (
	StatusPresent Status = "Present"
	StatusMissing Status = "Missing"
)

// SectionResult is one row of the section report
type SectionResult struct {
	Heading  string   `json:"section"`
	AliasOf  string   `json:"alias_of,omitempty"`
	Status   Status   `json:"status"`
	Pages    []int    `json:"pages"`
	Headings []string `json:"headings_used"`
}

// PagesString joins the page numbers with ", ", or returns "-" when there are none
func (r SectionResult) PagesString() string {
	if len(r.Pages) == 0 {
		return "-"
	}
	parts := make([]string, len(r.Pages))
	for i, p := range r.Pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

// HeadingsString joins the observed heading variants with "; ", or returns "-"
func (r SectionResult) HeadingsString() string {
	if len(r.Headings) == 0 {
		return "-"
	}
	return strings.Join(r.Headings, "; ")
}

// Score is the case-insensitive partial ratio of a and b, 0 to 100
func Score(a, b string) int {
	return fuzzy.PartialRatio(strings.ToLower(a), strings.ToLower(b))
}

// ValidateThreshold checks that a heading threshold lies in the accepted range
func ValidateThreshold(threshold int) error {
	if threshold < MinThreshold || threshold > MaxThreshold {
		return fmt.Errorf("threshold must be between %d and %d, got %d", MinThreshold, MaxThreshold, threshold)
	}
	return nil
}

// FindHeadings returns the trimmed lines of text that match heading at the
// threshold and do not also match any strictly longer heading of the
// vocabulary. Duplicates are dropped, first occurrence wins.
func FindHeadings(text, heading string, vocabulary []string, threshold int) []string {
	var longer []string
	for _, h := range vocabulary {
		if utf8.RuneCountInString(h) > utf8.RuneCountInString(heading) {
			longer = append(longer, h)
		}
	}

	var matches []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		if Score(line, heading) < threshold {
			continue
		}
		if matchesAny(line, longer, threshold) {
			continue
		}
		seen[line] = true
		matches = append(matches, line)
	}
	return matches
}

// FindFirst returns the first trimmed line of text matching heading at the
// threshold, without regard to other headings
func FindFirst(text, heading string, threshold int) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if Score(line, heading) >= threshold {
			return line, true
		}
	}
	return "", false
}

func matchesAny(line string, candidates []string, threshold int) bool {
	for _, c := range candidates {
		if Score(line, c) >= threshold {
			return true
		}
	}
	return false
}

// SectionMatcher checks documents against a heading vocabulary. The threshold
// is fixed at construction, so a matcher is safe for concurrent use.
type SectionMatcher struct {
	threshold int
	headings  []vocab.Heading
	names     []string
}

// NewSectionMatcher creates a matcher for the given headings
func NewSectionMatcher(threshold int, headings []vocab.Heading) (*SectionMatcher, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if len(headings) == 0 {
		return nil, fmt.Errorf("at least one heading is required")
	}

	names := make([]string, len(headings))
	for i, h := range headings {
		names[i] = h.Name
	}

	return &SectionMatcher{
		threshold: threshold,
		headings:  headings,
		names:     names,
	}, nil
}

// Threshold returns the matcher's threshold
func (m *SectionMatcher) Threshold() int {
	return m.threshold
}

// FindHeadings applies FindHeadings with the matcher's vocabulary and threshold
func (m *SectionMatcher) FindHeadings(text, heading string) []string {
	return FindHeadings(text, heading, m.names, m.threshold)
}

// Analyze reports every vocabulary heading, in vocabulary order, against the
// text of each page. Page numbers are 1-based.
func (m *SectionMatcher) Analyze(pages []string) []SectionResult {
	results := make([]SectionResult, 0, len(m.headings))

	for _, h := range m.headings {
		result := SectionResult{
			Heading:  h.Name,
			AliasOf:  h.AliasOf,
			Status:   StatusMissing,
			Pages:    []int{},
			Headings: []string{},
		}

		seen := make(map[string]bool)
		for i, text := range pages {
			matches := m.FindHeadings(text, h.Name)
			if len(matches) == 0 {
				continue
			}
			result.Status = StatusPresent
			result.Pages = append(result.Pages, i+1)
			for _, match := range matches {
				if !seen[match] {
					seen[match] = true
					result.Headings = append(result.Headings, match)
				}
			}
		}

		results = append(results, result)
	}

	return results
}

// Missing returns the headings reported Missing
func Missing(results []SectionResult) []string {
	missing := []string{}
	for _, r := range results {
		if r.Status == StatusMissing {
			missing = append(missing, r.Heading)
		}
	}
	return missing
}
