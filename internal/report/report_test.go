package report

import (
	"strings"
	"testing"
	"time"

	"github.com/joelkehle/dentalscan/internal/interpret"
)

const structuredReport = `## DETECTED CONDITIONS
- Moderate plaque buildup (88% confidence)

## AFFECTED AREAS
- Lower incisors

## RECOMMENDATIONS
1. Professional cleaning
2. Floss daily
`

func fixedNow(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func TestBuildResponseStructuredReport(t *testing.T) {
	fixedNow(t)
	a := interpret.NewDefault().Interpret(structuredReport)
	env := BuildResponse(a, &ImageMetadata{Filename: "scan.png", Format: "png"})

	if !env.Success || env.Disclaimer != Disclaimer {
		t.Fatalf("unexpected envelope header %+v", env)
	}
	if env.AnalysisID == "" {
		t.Fatal("expected analysis id")
	}
	if len(env.Insights) != 1 || env.Insights[0].Condition != "Plaque" {
		t.Fatalf("unexpected insights %+v", env.Insights)
	}
	card := env.Insights[0]
	if card.Confidence != 88 || card.Severity != interpret.SeverityModerate || card.ColorHex != "#FF9800" || card.Advisory != interpret.AdvisoryConsult {
		t.Fatalf("unexpected card %+v", card)
	}
	md := env.ReportMarkdown
	for _, want := range []string{
		"# Dental Scan Analysis Report",
		"- Image: scan.png",
		"- Date: 2026-03-01T12:00:00Z",
		"## Detected Conditions",
		"- Moderate plaque buildup (88% confidence) `Moderate` (88% confidence)",
		"## Affected Areas\n\n- Lower incisors",
		"## Professional Recommendations\n\n1. Professional cleaning\n2. Floss daily",
		"| 1 | Plaque | 25% | 30% |",
		Disclaimer,
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Analysis Report") {
		t.Fatal("raw fallback should not render when sections exist")
	}
}

func TestBuildResponseRawFallback(t *testing.T) {
	a := interpret.NewDefault().Interpret("The image is too blurry to assess.\n\nPlease retake it.")
	env := BuildResponse(a, nil)
	md := env.ReportMarkdown
	if !strings.Contains(md, "## Analysis Report\n\nThe image is too blurry to assess.\n\nPlease retake it.") {
		t.Fatalf("expected raw fallback section:\n%s", md)
	}
	if !strings.Contains(md, "### General Assessment") || !strings.Contains(md, interpret.AdvisoryMonitor) {
		t.Fatalf("expected fallback card:\n%s", md)
	}
}

func TestRebuildResponseKeepsStructuredFields(t *testing.T) {
	env := BuildResponse(interpret.NewDefault().Interpret(structuredReport), nil)
	saved := env
	saved.ReportMarkdown = ""
	saved.ConditionRows = nil
	saved.Disclaimer = ""

	rebuilt := RebuildResponse(saved)
	if rebuilt.ReportMarkdown != env.ReportMarkdown {
		t.Fatalf("rebuilt markdown differs:\n%s\n---\n%s", rebuilt.ReportMarkdown, env.ReportMarkdown)
	}
}

func TestConfidenceBar(t *testing.T) {
	if got := confidenceBar(82); got != "`████████░░`" {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := confidenceBar(250); got != "`██████████`" {
		t.Fatalf("bar should clamp, got %q", got)
	}
}

func TestRenderHTMLSanitizes(t *testing.T) {
	out, err := RenderHTML("## Findings\n\n<script>alert(1)</script>\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("script tag survived sanitizing: %s", out)
	}
	if !strings.Contains(out, "<h2") || !strings.Contains(out, "<table>") {
		t.Fatalf("expected heading and table: %s", out)
	}
}
