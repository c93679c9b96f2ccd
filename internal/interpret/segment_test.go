package interpret

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleReport = `Thank you for the image. Here is my assessment.

## DETECTED CONDITIONS
- Mild cavity on lower left molar (82% confidence)
- Moderate plaque buildup along the gum line

## AFFECTED AREAS
• Lower left first molar
• Lingual surface of lower incisors

## DETAILED FINDINGS
1. Early enamel demineralization visible on the occlusal surface.
2. Gingival margins appear slightly inflamed.

## RECOMMENDATIONS
1. Schedule a professional cleaning.
2. Use fluoride toothpaste twice daily.
`

func TestSegmentSampleReport(t *testing.T) {
	got := Segment(sampleReport)
	want := ReportSections{
		Conditions: []string{
			"Mild cavity on lower left molar (82% confidence)",
			"Moderate plaque buildup along the gum line",
		},
		Areas: []string{
			"Lower left first molar",
			"Lingual surface of lower incisors",
		},
		Findings: []string{
			"Early enamel demineralization visible on the occlusal surface.",
			"Gingival margins appear slightly inflamed.",
		},
		Recommendations: []string{
			"Schedule a professional cleaning.",
			"Use fluoride toothpaste twice daily.",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Segment mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentNoHeadersLeavesAllSectionsEmpty(t *testing.T) {
	got := Segment("Image quality is good.\nNothing notable to report.")
	if !got.Empty() {
		t.Fatalf("expected empty sections, got %+v", got)
	}
	for _, kind := range SectionKinds {
		if lines := got.Lines(kind); lines == nil || len(lines) != 0 {
			t.Fatalf("section %s should be an empty non-nil slice, got %#v", kind, lines)
		}
	}
}

func TestSegmentDetectedConditionsBullet(t *testing.T) {
	got := Segment("DETECTED CONDITIONS\n- Mild cavity 82% confidence")
	want := []string{"Mild cavity 82% confidence"}
	if diff := cmp.Diff(want, got.Conditions); diff != "" {
		t.Fatalf("conditions mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentAreasAndRecommendationsOnly(t *testing.T) {
	text := "AFFECTED AREAS\n- Upper left molar\n- Lower right incisor\n* Gum line near canine\n" +
		"RECOMMENDATIONS\n1. Schedule a cleaning\n2. Use fluoride toothpaste\n• Floss daily"
	got := Segment(text)
	want := ReportSections{
		Conditions:      []string{},
		Areas:           []string{"Upper left molar", "Lower right incisor", "Gum line near canine"},
		Findings:        []string{},
		Recommendations: []string{"Schedule a cleaning", "Use fluoride toothpaste", "Floss daily"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Segment mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentDropsLinesBeforeFirstHeader(t *testing.T) {
	got := Segment("Preamble that mentions decay\n- stray bullet\nFindings\n- Real finding here")
	if diff := cmp.Diff([]string{"Real finding here"}, got.Findings); diff != "" {
		t.Fatalf("findings mismatch (-want +got):\n%s", diff)
	}
	if len(got.Conditions)+len(got.Areas)+len(got.Recommendations) != 0 {
		t.Fatalf("preamble leaked into a section: %+v", got)
	}
}

func TestSegmentHeaderCuesAreCaseSensitive(t *testing.T) {
	got := Segment("Detected Conditions:\n- plaque present\nyour recommendation below\n- keep brushing")
	if diff := cmp.Diff([]string{"plaque present", "your recommendation below", "keep brushing"}, got.Conditions); diff != "" {
		t.Fatalf("lower-case cue must not switch sections (-want +got):\n%s", diff)
	}
	if len(got.Recommendations) != 0 {
		t.Fatalf("unexpected recommendations: %v", got.Recommendations)
	}
}

func TestSegmentHeaderPriority(t *testing.T) {
	// A line carrying two cues resolves to the earlier rule.
	got := Segment("DETECTED CONDITIONS and AFFECTED AREAS\n- cavity on molar")
	if diff := cmp.Diff([]string{"cavity on molar"}, got.Conditions); diff != "" {
		t.Fatalf("conditions mismatch (-want +got):\n%s", diff)
	}
	if len(got.Areas) != 0 {
		t.Fatalf("areas should be empty, got %v", got.Areas)
	}
}

func TestSegmentReturningToSectionAppendsInOrder(t *testing.T) {
	text := "DETECTED CONDITIONS\n- first\nRECOMMENDATIONS\n- brush\nDETECTED CONDITIONS\n- second"
	got := Segment(text)
	if diff := cmp.Diff([]string{"first", "second"}, got.Conditions); diff != "" {
		t.Fatalf("conditions mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentHandlesCRLF(t *testing.T) {
	got := Segment("AFFECTED AREAS\r\n- Upper molar\r\n- Lower molar\r\n")
	if diff := cmp.Diff([]string{"Upper molar", "Lower molar"}, got.Areas); diff != "" {
		t.Fatalf("areas mismatch (-want +got):\n%s", diff)
	}
}

func TestTransition(t *testing.T) {
	sg := segmenter{headers: DefaultConfig().Headers}

	state, content, emitted := sg.transition(stateNone, "- orphan bullet")
	if emitted || state != stateNone || content != "" {
		t.Fatalf("orphan line should be dropped, got (%v, %q, %v)", state, content, emitted)
	}
	state, _, emitted = sg.transition(state, "### DETAILED FINDINGS")
	if emitted || state.section != SectionFindings {
		t.Fatalf("expected findings state, got %v emitted=%v", state, emitted)
	}
	state, content, emitted = sg.transition(state, "  2. Enamel intact ")
	if !emitted || content != "Enamel intact" || state.section != SectionFindings {
		t.Fatalf("unexpected transition (%v, %q, %v)", state, content, emitted)
	}
	state, _, emitted = sg.transition(state, "# unrelated heading")
	if emitted || state.section != SectionFindings {
		t.Fatalf("heading noise must not change state, got %v emitted=%v", state, emitted)
	}
}

func TestSegmentIsIdempotent(t *testing.T) {
	first := Segment(sampleReport)
	second := Segment(sampleReport)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("segmenting twice differs:\n%s", diff)
	}
}
