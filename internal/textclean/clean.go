// Package textclean normalizes inbound message bodies for display: HTML to
// text conversion, quoted-reply splitting, and removal of mail-client noise.
// These are heuristics; the raw body is always preserved alongside the
// cleaned form.
package textclean

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()

	// Common markers that introduce quoted previous-message content.
	replyHeaderPattern = regexp.MustCompile(`(?mi)^\s*(on .{1,200} wrote:\s*$|-+\s*original message\s*-+|from:\s+.+@.+$|_{10,}\s*$)`)

	invisibleRunes  = strings.NewReplacer("​", "", "‌", "", "‍", "", "\uFEFF", "", "­", "")
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// StripHTML reduces an HTML body to plain text. Block-level boundaries become
// newlines so paragraphs survive the tag removal.
func StripHTML(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	withBreaks := regexp.MustCompile(`(?i)<(br|/p|/div|/tr|/li|/h[1-6])[^>]*>`).ReplaceAllString(input, "$0\n")
	stripped := strictPolicy.Sanitize(withBreaks)
	return normalizeWhitespace(html.UnescapeString(stripped))
}

// SplitQuoted separates the newly written part of a reply from quoted
// previous-message content. The quoted part starts at the first reply header
// marker or at the first run of ">"-prefixed lines. When no marker is found
// the whole input is visible.
func SplitQuoted(text string) (visible, quoted string) {
	if text == "" {
		return "", ""
	}
	if loc := replyHeaderPattern.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[:loc[0]]), strings.TrimSpace(text[loc[0]:])
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			return strings.TrimSpace(strings.Join(lines[:i], "\n")),
				strings.TrimSpace(strings.Join(lines[i:], "\n"))
		}
	}
	return strings.TrimSpace(text), ""
}

// Clean produces the display form of an inbound message: prefers the plain
// text body, falls back to stripped HTML, removes invisible characters, and
// drops quoted previous-message content. Returns the full visible text when
// quote splitting would leave nothing.
func Clean(text, htmlBody string) string {
	body := text
	if strings.TrimSpace(body) == "" {
		body = StripHTML(htmlBody)
	}
	body = normalizeWhitespace(body)
	visible, _ := SplitQuoted(body)
	if visible == "" {
		return body
	}
	return visible
}

func normalizeWhitespace(s string) string {
	s = invisibleRunes.Replace(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
