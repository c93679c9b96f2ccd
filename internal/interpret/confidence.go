package interpret

import (
	"hash/fnv"
	"regexp"
	"strconv"
)

// percentPattern matches a run of one to three digits immediately followed by '%'.
var percentPattern = regexp.MustCompile(`(\d{1,3})%`)

// ConfidencePolicy supplies the confidence used when a report states no percentage.
// Implementations must be deterministic in text.
type ConfidencePolicy interface {
	DefaultConfidence(text string) int
}

// Fixed always returns the same confidence.
type Fixed int

func (f Fixed) DefaultConfidence(string) int { return clampConfidence(int(f)) }

// TextSeeded derives a value in [Min, Min+Span) from an FNV-1a hash of the report,
// so the same report always gets the same confidence.
type TextSeeded struct {
	Min  int
	Span int
}

// DefaultConfidencePolicy returns the policy used unless WithConfidencePolicy
// overrides it. It yields values in [70,90).
func DefaultConfidencePolicy() ConfidencePolicy {
	return TextSeeded{Min: 70, Span: 20}
}

func (p TextSeeded) DefaultConfidence(text string) int {
	if p.Span <= 0 {
		return clampConfidence(p.Min)
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return clampConfidence(p.Min + int(h.Sum32()%uint32(p.Span)))
}

// ExtractConfidence returns the first percentage stated in text.
func ExtractConfidence(text string) (int, bool) {
	m := percentPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return clampConfidence(n), true
}

func clampConfidence(n int) int {
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	}
	return n
}
