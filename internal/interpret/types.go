package interpret

type SectionKind string

const (
	SectionConditions      SectionKind = "conditions"
	SectionAreas           SectionKind = "areas"
	SectionFindings        SectionKind = "findings"
	SectionRecommendations SectionKind = "recommendations"
)

// SectionKinds lists the sections in display order.
var SectionKinds = []SectionKind{SectionConditions, SectionAreas, SectionFindings, SectionRecommendations}

type Severity string

const (
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeverityHigh     Severity = "High"
)

type ColorToken string

const (
	ColorAmber  ColorToken = "amber"
	ColorOrange ColorToken = "orange"
	ColorRed    ColorToken = "red"
	ColorTeal   ColorToken = "teal"
)

// Hex returns the display colour used by the web front-end.
func (c ColorToken) Hex() string {
	switch c {
	case ColorAmber:
		return "#FFC107"
	case ColorOrange:
		return "#FF9800"
	case ColorRed:
		return "#F44336"
	case ColorTeal:
		return "#00897B"
	}
	return ""
}

// ColorForSeverity maps a severity to its colour token.
func ColorForSeverity(s Severity) ColorToken {
	switch s {
	case SeverityHigh:
		return ColorRed
	case SeverityModerate:
		return ColorOrange
	default:
		return ColorAmber
	}
}

const (
	AdvisoryConsult = "Requires professional consultation"
	AdvisoryMonitor = "Monitor and maintain oral hygiene"

	AdvisoryConfidenceThreshold = 85
)

// ReportSections holds the normalized lines of each section in document order.
type ReportSections struct {
	Conditions      []string `json:"conditions"`
	Areas           []string `json:"areas"`
	Findings        []string `json:"findings"`
	Recommendations []string `json:"recommendations"`
}

func newReportSections() ReportSections {
	return ReportSections{
		Conditions:      []string{},
		Areas:           []string{},
		Findings:        []string{},
		Recommendations: []string{},
	}
}

// Lines returns the lines collected for kind.
func (s ReportSections) Lines(kind SectionKind) []string {
	switch kind {
	case SectionConditions:
		return s.Conditions
	case SectionAreas:
		return s.Areas
	case SectionFindings:
		return s.Findings
	case SectionRecommendations:
		return s.Recommendations
	}
	return nil
}

func (s *ReportSections) add(kind SectionKind, line string) {
	switch kind {
	case SectionConditions:
		s.Conditions = append(s.Conditions, line)
	case SectionAreas:
		s.Areas = append(s.Areas, line)
	case SectionFindings:
		s.Findings = append(s.Findings, line)
	case SectionRecommendations:
		s.Recommendations = append(s.Recommendations, line)
	}
}

// Empty reports whether no section received any line.
func (s ReportSections) Empty() bool {
	return len(s.Conditions) == 0 && len(s.Areas) == 0 && len(s.Findings) == 0 && len(s.Recommendations) == 0
}

type Insight struct {
	Condition  string     `json:"condition"`
	Confidence int        `json:"confidence"`
	Severity   Severity   `json:"severity"`
	Color      ColorToken `json:"color"`
}

// Advisory returns the note shown under the insight card.
func (i Insight) Advisory() string {
	if i.Confidence >= AdvisoryConfidenceThreshold {
		return AdvisoryConsult
	}
	return AdvisoryMonitor
}

type Position struct {
	Top  string `json:"top" yaml:"top"`
	Left string `json:"left" yaml:"left"`
}

type AreaMarker struct {
	ID       int      `json:"id"`
	Label    string   `json:"label"`
	Position Position `json:"position"`
}

type Condition struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// ConditionRow is one line of the Conditions section rated on its own.
type ConditionRow struct {
	Text       string   `json:"text"`
	Severity   Severity `json:"severity"`
	Confidence *int     `json:"confidence,omitempty"`
}

// Analysis is everything the rendering layer needs for one report.
type Analysis struct {
	FullText      string         `json:"analysis"`
	Sections      ReportSections `json:"sections"`
	ConditionRows []ConditionRow `json:"condition_rows"`
	Insights      []Insight      `json:"insights"`
	Markers       []AreaMarker   `json:"detected_areas"`
	RawLines      []string       `json:"raw_lines,omitempty"`
}
