package interpret

import "strings"

type extractor struct {
	catalog                 []Condition
	high                    []string
	moderate                []string
	moderateConfidenceAbove int
	fallback                Insight
	policy                  ConfidencePolicy
}

func (e extractor) extract(text string) []Insight {
	lower := strings.ToLower(text)
	var insights []Insight
	confidence, resolved := 0, false
	for _, cond := range e.catalog {
		if !containsAny(lower, cond.Keywords) {
			continue
		}
		// Every detected condition shares the report-wide confidence.
		if !resolved {
			confidence = e.confidence(text)
			resolved = true
		}
		severity := e.severity(lower, confidence)
		insights = append(insights, Insight{
			Condition:  cond.Name,
			Confidence: confidence,
			Severity:   severity,
			Color:      ColorForSeverity(severity),
		})
	}
	if len(insights) == 0 {
		return []Insight{e.fallback}
	}
	return insights
}

func (e extractor) confidence(text string) int {
	if c, ok := ExtractConfidence(text); ok {
		return c
	}
	return clampConfidence(e.policy.DefaultConfidence(text))
}

func (e extractor) severity(lower string, confidence int) Severity {
	switch {
	case containsAny(lower, e.high):
		return SeverityHigh
	case containsAny(lower, e.moderate) || confidence > e.moderateConfidenceAbove:
		return SeverityModerate
	}
	return SeverityMild
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// RateConditionLine rates a single Conditions line for the per-row badge:
// "high" or "severe" mark it High, "moderate" marks it Moderate.
func RateConditionLine(line string) ConditionRow {
	lower := strings.ToLower(line)
	row := ConditionRow{Text: line, Severity: SeverityMild}
	switch {
	case strings.Contains(lower, "high") || strings.Contains(lower, "severe"):
		row.Severity = SeverityHigh
	case strings.Contains(lower, "moderate"):
		row.Severity = SeverityModerate
	}
	if c, ok := ExtractConfidence(line); ok {
		row.Confidence = &c
	}
	return row
}
