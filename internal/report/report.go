// Package report renders an interpreted analysis as a response envelope,
// markdown and sanitized HTML.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joelkehle/dentalscan/internal/interpret"
)

// now is swapped out in tests.
var now = time.Now

func newAnalysisID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// BuildResponse wraps an analysis for the web client.
func BuildResponse(a interpret.Analysis, img *ImageMetadata) ResponseEnvelope {
	env := ResponseEnvelope{
		Success:       true,
		AnalysisID:    newAnalysisID(),
		Analysis:      a.FullText,
		Sections:      a.Sections,
		ConditionRows: a.ConditionRows,
		Insights:      Cards(a.Insights),
		DetectedAreas: a.Markers,
		RawLines:      a.RawLines,
		Image:         img,
		GeneratedAt:   now().UTC(),
		Disclaimer:    Disclaimer,
	}
	env.ReportMarkdown = buildMarkdown(env)
	return env
}

// RebuildResponse regenerates the markdown of a saved envelope.
func RebuildResponse(env ResponseEnvelope) ResponseEnvelope {
	if env.Disclaimer == "" {
		env.Disclaimer = Disclaimer
	}
	env.ReportMarkdown = buildMarkdown(env)
	return env
}

func Cards(insights []interpret.Insight) []InsightCard {
	out := make([]InsightCard, 0, len(insights))
	for _, ins := range insights {
		out = append(out, InsightCard{
			Condition:  ins.Condition,
			Confidence: ins.Confidence,
			Severity:   ins.Severity,
			Color:      ins.Color,
			ColorHex:   ins.Color.Hex(),
			Advisory:   ins.Advisory(),
		})
	}
	return out
}

func buildMarkdown(env ResponseEnvelope) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Dental Scan Analysis Report\n\n")
	if env.AnalysisID != "" {
		fmt.Fprintf(&b, "- Analysis ID: %s\n", env.AnalysisID)
	}
	if env.Image != nil && env.Image.Filename != "" {
		fmt.Fprintf(&b, "- Image: %s\n", sanitizeLine(env.Image.Filename))
	}
	if !env.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "- Date: %s\n", env.GeneratedAt.Format(time.RFC3339))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Quick Summary\n\n")
	for _, c := range env.Insights {
		fmt.Fprintf(&b, "### %s\n\n", c.Condition)
		fmt.Fprintf(&b, "- Severity: **%s**\n", c.Severity)
		fmt.Fprintf(&b, "- Confidence: %d%% %s\n", c.Confidence, confidenceBar(c.Confidence))
		fmt.Fprintf(&b, "- Note: %s\n\n", c.Advisory)
	}

	s := env.Sections
	if len(s.Conditions) > 0 {
		fmt.Fprintf(&b, "## Detected Conditions\n\n")
		rows := env.ConditionRows
		if len(rows) != len(s.Conditions) {
			rows = make([]interpret.ConditionRow, 0, len(s.Conditions))
			for _, line := range s.Conditions {
				rows = append(rows, interpret.RateConditionLine(line))
			}
		}
		for _, r := range rows {
			fmt.Fprintf(&b, "- %s `%s`", sanitizeLine(r.Text), r.Severity)
			if r.Confidence != nil {
				fmt.Fprintf(&b, " (%d%% confidence)", *r.Confidence)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	appendBullets(&b, "Affected Areas", s.Areas)
	appendBullets(&b, "Detailed Findings", s.Findings)
	if len(s.Recommendations) > 0 {
		fmt.Fprintf(&b, "## Professional Recommendations\n\n")
		for i, rec := range s.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, sanitizeLine(rec))
		}
		b.WriteString("\n")
	}
	if s.Empty() {
		fmt.Fprintf(&b, "## Analysis Report\n\n")
		lines := env.RawLines
		if lines == nil {
			lines = interpret.RawLines(env.Analysis)
		}
		for _, line := range lines {
			fmt.Fprintf(&b, "%s\n\n", sanitizeLine(line))
		}
	}

	if len(env.DetectedAreas) > 0 {
		fmt.Fprintf(&b, "## Marked Areas\n\n")
		fmt.Fprintf(&b, "| # | Label | Top | Left |\n|---|---|---|---|\n")
		for _, m := range env.DetectedAreas {
			fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", m.ID, strings.ReplaceAll(m.Label, "|", "/"), m.Position.Top, m.Position.Left)
		}
		fmt.Fprintf(&b, "\nMarker placement is illustrative and does not localize findings on the image.\n\n")
	}

	fmt.Fprintf(&b, "---\n\n**Disclaimer:** %s\n", env.Disclaimer)
	return b.String()
}

func appendBullets(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, l := range lines {
		fmt.Fprintf(b, "- %s\n", sanitizeLine(l))
	}
	b.WriteString("\n")
}

// confidenceBar draws a ten-cell bar, one cell per 10%.
func confidenceBar(confidence int) string {
	filled := min(max(confidence/10, 0), 10)
	return "`" + strings.Repeat("█", filled) + strings.Repeat("░", 10-filled) + "`"
}

func sanitizeLine(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if s == "" {
		return "-"
	}
	return s
}
