// Package textnorm cleans up loosely structured text recovered from
// page-oriented documents. Extraction from positioned page content yields text
// with mid-word line breaks, hard-wrapped lines, and typographic list markers;
// Process repairs those into flowing Markdown-friendly paragraphs.
//
// The pipeline is fixed: hyphenation repair, line merging, list detection,
// citation formatting. Every stage is a pure string transform and the whole
// pipeline is idempotent on already-normalized text.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	hyphenBreakRe = regexp.MustCompile(`(\p{L})-[ \t]*\n[ \t]*(\p{L})`)
	spaceRunRe    = regexp.MustCompile(`[ \t]+`)
	bulletLineRe  = regexp.MustCompile(`^[ \t]*[•◦▪‣·][ \t]*(\S.*)$`)
	numberLineRe  = regexp.MustCompile(`^[ \t]*(\d{1,3})\.[ \t]+(\S.*)$`)
	listStartRe   = regexp.MustCompile(`^[ \t]*(-[ \t]|[•◦▪‣·]|\d{1,3}\.[ \t])`)
	citationRe    = regexp.MustCompile(`(<sup>)?(\[\d{1,3}(?:[ \t]*,[ \t]*\d{1,3})*\])(</sup>)?`)
)

// Process runs the full normalization pipeline and trims the result.
func Process(s string) string {
	s = RepairHyphenation(s)
	s = MergeLines(s)
	s = FormatLists(s)
	s = FormatCitations(s)
	return strings.TrimSpace(s)
}

// RepairHyphenation joins words split across a line break with a hyphen,
// e.g. "exam-\nple" becomes "example".
func RepairHyphenation(s string) string {
	return hyphenBreakRe.ReplaceAllString(s, "$1$2")
}

// MergeLines reflows hard-wrapped text. A line ending in sentence-terminal
// punctuation starts a new paragraph; a blank line always does. A line whose
// successor opens with a list marker keeps its break so FormatLists can still
// see the marker. All other line breaks collapse into a single space, as do
// runs of spaces and tabs.
func MergeLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	var b strings.Builder
	pendingBreak := false
	wrote := false

	for _, line := range lines {
		line = strings.TrimSpace(spaceRunRe.ReplaceAllString(line, " "))
		if line == "" {
			pendingBreak = wrote
			continue
		}

		switch {
		case !wrote:
			// First line, no separator.
		case pendingBreak || listStartRe.MatchString(line):
			b.WriteString("\n\n")
		default:
			b.WriteString(" ")
		}
		b.WriteString(line)
		wrote = true
		pendingBreak = endsSentence(line)
	}

	return b.String()
}

// FormatLists rewrites typographic bullet lines and "N." numbered lines into
// canonical Markdown list items.
func FormatLists(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if m := bulletLineRe.FindStringSubmatch(line); m != nil {
			lines[i] = "- " + m[1]
			continue
		}
		if m := numberLineRe.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + ". " + m[2]
		}
	}
	return strings.Join(lines, "\n")
}

// FormatCitations wraps bracketed numeric citation groups such as [12] or
// [3, 4] in superscript markup. Already-wrapped citations are left alone.
func FormatCitations(s string) string {
	return citationRe.ReplaceAllStringFunc(s, func(match string) string {
		groups := citationRe.FindStringSubmatch(match)
		if groups[1] != "" || groups[3] != "" {
			return match
		}
		return "<sup>" + groups[2] + "</sup>"
	})
}

// endsSentence reports whether line ends with sentence-terminal punctuation,
// allowing trailing closing quotes or brackets.
func endsSentence(line string) bool {
	line = strings.TrimRight(line, `"')]`+"”’")
	if line == "" {
		return false
	}
	switch line[len(line)-1] {
	case '.', '!', '?', ':':
		return true
	}
	return strings.HasSuffix(line, "…") // ellipsis
}
