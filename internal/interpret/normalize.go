package interpret

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const minLineRunes = 3

var listMarker = regexp.MustCompile(`^(?:[•\-*]\s*|\d+\.\s+)`)

// NormalizeLine cleans one report line. It returns false when the line carries
// no content: blank, a markdown heading, or shorter than three characters once
// its bullet or numbering prefix is gone.
func NormalizeLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	if loc := listMarker.FindStringIndex(trimmed); loc != nil {
		trimmed = trimmed[loc[1]:]
	}
	if utf8.RuneCountInString(trimmed) < minLineRunes {
		return "", false
	}
	return trimmed, true
}

// splitLines splits on \n and drops the \r left behind by CRLF endings.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// RawLines returns the non-blank lines of text verbatim. Renderers show these
// when the segmenter found no section at all.
func RawLines(text string) []string {
	out := []string{}
	for _, l := range splitLines(text) {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
