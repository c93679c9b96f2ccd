package interpret

import "strings"

// segmentState is the segmenter's current section; stateNone until the first header.
type segmentState struct {
	section SectionKind
}

var stateNone = segmentState{}

func (s segmentState) active() bool { return s.section != "" }

type segmenter struct {
	headers []HeaderCue
}

// transition consumes one line. Header lines move the state and emit nothing;
// other lines emit their normalized content when a section is active.
func (sg segmenter) transition(state segmentState, line string) (segmentState, string, bool) {
	trimmed := strings.TrimSpace(line)
	if kind, ok := sg.matchHeader(trimmed); ok {
		return segmentState{section: kind}, "", false
	}
	cleaned, ok := NormalizeLine(trimmed)
	if !ok || !state.active() {
		return state, "", false
	}
	return state, cleaned, true
}

func (sg segmenter) matchHeader(line string) (SectionKind, bool) {
	if line == "" {
		return "", false
	}
	for _, h := range sg.headers {
		for _, phrase := range h.Phrases {
			if strings.Contains(line, phrase) {
				return h.Section, true
			}
		}
	}
	return "", false
}

func (sg segmenter) segment(text string) ReportSections {
	sections := newReportSections()
	state := stateNone
	for _, line := range splitLines(text) {
		var content string
		var emitted bool
		state, content, emitted = sg.transition(state, line)
		if emitted {
			sections.add(state.section, content)
		}
	}
	return sections
}
