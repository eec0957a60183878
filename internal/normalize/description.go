// Package normalize turns pasted job descriptions into a sectioned,
// bullet-per-line form for display.
package normalize

import (
	"regexp"
	"strings"
)

// Bullet is the canonical bullet glyph every marker variant is rewritten to.
const Bullet = "•"

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	sectionWord   = regexp.MustCompile(`(?i)\b(responsibilities|requirements|qualifications|skills|benefits|about)\b`)
	bulletGlyph   = regexp.MustCompile(`[•●▪◦▫■□‣⁃∙·]`)
	dashMarker    = regexp.MustCompile(`(^|\s)[-*]\s+`)
	bulletBreak   = regexp.MustCompile(`\s*` + Bullet + `\s*`)
	lineEdgeSpace = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	extraBreaks   = regexp.MustCompile(`\n{3,}`)
	sectionHead   = regexp.MustCompile(`(?i)(^|\n\n)(responsibilities|requirements|qualifications|skills|benefits|about)\b`)
)

// Description normalizes free text. The result is stable: feeding it back
// in returns the same string.
func Description(raw string) string {
	s := strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " "))
	if s == "" {
		return ""
	}

	s = sectionWord.ReplaceAllString(s, "\n\n$1")

	s = bulletGlyph.ReplaceAllString(s, Bullet)
	s = dashMarker.ReplaceAllString(s, "${1}"+Bullet+" ")
	s = bulletBreak.ReplaceAllString(s, "\n"+Bullet+" ")

	s = lineEdgeSpace.ReplaceAllString(s, "\n")
	s = extraBreaks.ReplaceAllString(s, "\n\n")

	s = sectionHead.ReplaceAllStringFunc(s, titleSection)

	return strings.Trim(s, " \n")
}

func titleSection(match string) string {
	prefix := strings.TrimRight(match, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	word := match[len(prefix):]
	return prefix + strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
