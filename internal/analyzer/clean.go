package analyzer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanReport normalizes upstream text before interpretation: NFC form, no
// byte-order mark, no surrounding markdown code fence.
func CleanReport(s string) string {
	s = norm.NFC.String(s)
	s = strings.TrimPrefix(s, "\ufeff")
	return stripCodeFences(s)
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	return s
}
