package interpret

import (
	"errors"
	"fmt"
	"strings"
)

const (
	FallbackCondition  = "General Assessment"
	FallbackConfidence = 75
	MaxMarkers         = 4
)

// HeaderCue switches the segmenter into Section when any phrase occurs in a line.
// Matching is case-sensitive, so cues carry both the upper-case and title-case form.
type HeaderCue struct {
	Section SectionKind `json:"section" yaml:"section"`
	Phrases []string    `json:"phrases" yaml:"phrases"`
}

// Config is the static data the interpreter runs on. It is read once and never mutated.
type Config struct {
	Catalog                 []Condition `json:"catalog" yaml:"catalog"`
	Headers                 []HeaderCue `json:"headers" yaml:"headers"`
	HighSeverityKeywords    []string    `json:"high_severity_keywords" yaml:"high_severity_keywords"`
	ModerateKeywords        []string    `json:"moderate_keywords" yaml:"moderate_keywords"`
	ModerateConfidenceAbove int         `json:"moderate_confidence_above" yaml:"moderate_confidence_above"`
	Positions               []Position  `json:"positions" yaml:"positions"`
	Fallback                Insight     `json:"fallback" yaml:"fallback"`
}

// DefaultConfig returns a fresh copy of the built-in dental catalog.
func DefaultConfig() Config {
	return Config{
		Catalog: []Condition{
			{Name: "Cavities", Keywords: []string{"cavity", "cavities", "caries", "decay", "tooth decay"}},
			{Name: "Plaque", Keywords: []string{"plaque", "tartar", "calculus"}},
			{Name: "Gum Disease", Keywords: []string{"gum", "gingivitis", "periodontitis", "inflammation"}},
			{Name: "Tooth Wear", Keywords: []string{"wear", "erosion", "abrasion", "attrition"}},
			{Name: "Misalignment", Keywords: []string{"misalign", "crooked", "malocclusion"}},
		},
		Headers: []HeaderCue{
			{Section: SectionConditions, Phrases: []string{"DETECTED CONDITIONS", "Detected Conditions"}},
			{Section: SectionAreas, Phrases: []string{"AFFECTED AREAS", "Affected Areas"}},
			{Section: SectionFindings, Phrases: []string{"DETAILED FINDINGS", "Findings"}},
			{Section: SectionRecommendations, Phrases: []string{"RECOMMENDATIONS", "Recommendation"}},
		},
		HighSeverityKeywords:    []string{"severe", "serious", "urgent"},
		ModerateKeywords:        []string{"moderate"},
		ModerateConfidenceAbove: 80,
		Positions: []Position{
			{Top: "25%", Left: "30%"},
			{Top: "45%", Left: "55%"},
			{Top: "65%", Left: "40%"},
			{Top: "35%", Left: "65%"},
		},
		Fallback: Insight{
			Condition:  FallbackCondition,
			Confidence: FallbackConfidence,
			Severity:   SeverityMild,
			Color:      ColorTeal,
		},
	}
}

func (c Config) Validate() error {
	if len(c.Catalog) == 0 {
		return errors.New("catalog must contain at least one condition")
	}
	seen := map[string]bool{}
	for i, cond := range c.Catalog {
		name := strings.TrimSpace(cond.Name)
		if name == "" {
			return fmt.Errorf("catalog[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("catalog[%d]: duplicate condition %q", i, name)
		}
		seen[name] = true
		if len(cond.Keywords) == 0 {
			return fmt.Errorf("catalog[%d] %s: at least one keyword is required", i, name)
		}
		for _, kw := range cond.Keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("catalog[%d] %s: empty keyword", i, name)
			}
			if kw != strings.ToLower(kw) {
				return fmt.Errorf("catalog[%d] %s: keyword %q must be lower-case", i, name, kw)
			}
		}
	}
	for i, h := range c.Headers {
		switch h.Section {
		case SectionConditions, SectionAreas, SectionFindings, SectionRecommendations:
		default:
			return fmt.Errorf("headers[%d]: unknown section %q", i, h.Section)
		}
		if len(h.Phrases) == 0 {
			return fmt.Errorf("headers[%d] %s: at least one phrase is required", i, h.Section)
		}
		for _, p := range h.Phrases {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("headers[%d] %s: empty phrase", i, h.Section)
			}
		}
	}
	for _, kw := range append(append([]string{}, c.HighSeverityKeywords...), c.ModerateKeywords...) {
		if kw != strings.ToLower(kw) || strings.TrimSpace(kw) == "" {
			return fmt.Errorf("severity keyword %q must be non-empty and lower-case", kw)
		}
	}
	if c.ModerateConfidenceAbove < 0 || c.ModerateConfidenceAbove > 100 {
		return fmt.Errorf("moderate_confidence_above must be within [0,100], got %d", c.ModerateConfidenceAbove)
	}
	if len(c.Positions) != MaxMarkers {
		return fmt.Errorf("positions must contain exactly %d presets, got %d", MaxMarkers, len(c.Positions))
	}
	for i, p := range c.Positions {
		if !strings.HasSuffix(p.Top, "%") || !strings.HasSuffix(p.Left, "%") {
			return fmt.Errorf("positions[%d]: top and left must be percentages", i)
		}
	}
	if strings.TrimSpace(c.Fallback.Condition) == "" {
		return errors.New("fallback condition is required")
	}
	if c.Fallback.Confidence < 0 || c.Fallback.Confidence > 100 {
		return fmt.Errorf("fallback confidence must be within [0,100], got %d", c.Fallback.Confidence)
	}
	switch c.Fallback.Severity {
	case SeverityMild, SeverityModerate, SeverityHigh:
	default:
		return fmt.Errorf("fallback severity %q is not one of Mild, Moderate, High", c.Fallback.Severity)
	}
	if c.Fallback.Color.Hex() == "" {
		return fmt.Errorf("fallback color %q is unknown", c.Fallback.Color)
	}
	return nil
}

// Clone returns a deep copy so callers can tweak a config without sharing slices.
func (c Config) Clone() Config {
	out := c
	out.Catalog = make([]Condition, len(c.Catalog))
	for i, cond := range c.Catalog {
		out.Catalog[i] = Condition{Name: cond.Name, Keywords: append([]string(nil), cond.Keywords...)}
	}
	out.Headers = make([]HeaderCue, len(c.Headers))
	for i, h := range c.Headers {
		out.Headers[i] = HeaderCue{Section: h.Section, Phrases: append([]string(nil), h.Phrases...)}
	}
	out.HighSeverityKeywords = append([]string(nil), c.HighSeverityKeywords...)
	out.ModerateKeywords = append([]string(nil), c.ModerateKeywords...)
	out.Positions = append([]Position(nil), c.Positions...)
	return out
}
