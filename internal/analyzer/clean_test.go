package analyzer

import "testing"

func TestStripCodeFences(t *testing.T) {
	for in, want := range map[string]string{
		"```markdown\n## DETECTED CONDITIONS\n- plaque\n```": "## DETECTED CONDITIONS\n- plaque",
		"```\nplain\n```":   "plain",
		"  no fences here ": "no fences here",
		"```":               "",
	} {
		if got := stripCodeFences(in); got != want {
			t.Fatalf("stripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanReportNormalizesUnicode(t *testing.T) {
	got := CleanReport("\ufeffcarie\u0301s detected")
	if got != "cari\u00e9s detected" {
		t.Fatalf("unexpected clean report %q", got)
	}
}
