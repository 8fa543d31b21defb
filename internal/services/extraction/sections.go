package extraction

import (
	"regexp"
	"strings"
)

// Section heading patterns. Headings may carry a numeric prefix ("2. Conclusion")
// and are matched case-insensitively at the start of a line.
var (
	abstractHeadingRe     = regexp.MustCompile(`(?im)^[ \t]*(?:\d+\.?\s+)?abstract\b[ \t]*:?`)
	introductionHeadingRe = regexp.MustCompile(`(?im)^[ \t]*(?:\d+\.?\s+)?introduction\b[ \t]*:?`)
	conclusionHeadingRe   = regexp.MustCompile(`(?im)^[ \t]*(?:\d+\.?\s+)?conclusions?\b[ \t]*:?`)

	// A section ends at the next numbered heading: digits, optional period,
	// then a capitalized word. Heuristic, not a structural parse.
	nextHeadingRe = regexp.MustCompile(`(?m)^[ \t]*\d+\.?\s+[A-Z]`)
)

// extractSection returns the body of the first section whose heading matches
// headingRe, ending at the next numbered heading or at the end of text.
// Returns "" when no heading matches.
func extractSection(text string, headingRe *regexp.Regexp) string {
	loc := headingRe.FindStringIndex(text)
	if loc == nil {
		return ""
	}

	body := text[loc[1]:]

	if boundary := nextHeadingRe.FindStringIndex(body); boundary != nil {
		body = body[:boundary[0]]
	}

	return strings.TrimSpace(body)
}

func abstractSection(text string) string {
	return extractSection(text, abstractHeadingRe)
}

func introductionSection(text string) string {
	return extractSection(text, introductionHeadingRe)
}

func conclusionSection(text string) string {
	return extractSection(text, conclusionHeadingRe)
}
