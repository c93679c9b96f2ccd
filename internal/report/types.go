package report

import (
	"time"

	"github.com/joelkehle/dentalscan/internal/interpret"
)

const Disclaimer = "This AI analysis is for educational purposes only. " +
	"Please consult a licensed dentist for proper diagnosis and treatment."

// InsightCard is an insight plus the display hints the summary cards need.
type InsightCard struct {
	Condition  string               `json:"condition"`
	Confidence int                  `json:"confidence"`
	Severity   interpret.Severity   `json:"severity"`
	Color      interpret.ColorToken `json:"color_token"`
	ColorHex   string               `json:"color"`
	Advisory   string               `json:"advisory"`
}

type ImageMetadata struct {
	Filename string `json:"filename,omitempty"`
	Format   string `json:"format,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Bytes    int    `json:"bytes,omitempty"`
}

type ResponseEnvelope struct {
	Success        bool                     `json:"success"`
	AnalysisID     string                   `json:"analysis_id"`
	Analysis       string                   `json:"analysis"`
	Sections       interpret.ReportSections `json:"sections"`
	ConditionRows  []interpret.ConditionRow `json:"condition_rows"`
	Insights       []InsightCard            `json:"insights"`
	DetectedAreas  []interpret.AreaMarker   `json:"detected_areas"`
	RawLines       []string                 `json:"raw_lines,omitempty"`
	Image          *ImageMetadata           `json:"image,omitempty"`
	GeneratedAt    time.Time                `json:"generated_at"`
	ReportMarkdown string                   `json:"report_markdown"`
	Disclaimer     string                   `json:"disclaimer"`
}

type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
