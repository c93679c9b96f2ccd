// Package interpret turns the free-text report of the dental-scan inference
// service into sections, condition insights and overlay markers.
//
// Every operation is a pure function of the report text and the Config the
// Interpreter was built with, so one Interpreter can serve concurrent callers.
package interpret

import "fmt"

type Interpreter struct {
	cfg       Config
	segmenter segmenter
	extractor extractor
}

type Option func(*Interpreter)

// WithConfidencePolicy replaces DefaultConfidencePolicy.
func WithConfidencePolicy(p ConfidencePolicy) Option {
	return func(in *Interpreter) {
		if p != nil {
			in.extractor.policy = p
		}
	}
}

func New(cfg Config, opts ...Option) (*Interpreter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("interpreter config: %w", err)
	}
	cfg = cfg.Clone()
	in := &Interpreter{
		cfg:       cfg,
		segmenter: segmenter{headers: cfg.Headers},
		extractor: extractor{
			catalog:                 cfg.Catalog,
			high:                    cfg.HighSeverityKeywords,
			moderate:                cfg.ModerateKeywords,
			moderateConfidenceAbove: cfg.ModerateConfidenceAbove,
			fallback:                cfg.Fallback,
			policy:                  DefaultConfidencePolicy(),
		},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// NewDefault builds an Interpreter on DefaultConfig.
func NewDefault(opts ...Option) *Interpreter {
	in, err := New(DefaultConfig(), opts...)
	if err != nil {
		panic(err)
	}
	return in
}

// Config returns a copy of the configuration in use.
func (in *Interpreter) Config() Config { return in.cfg.Clone() }

// Segment splits text into the four report sections. Lines before the first
// header are dropped.
func (in *Interpreter) Segment(text string) ReportSections {
	return in.segmenter.segment(text)
}

// Insights lists detected conditions in catalog order. The result is never empty.
func (in *Interpreter) Insights(text string) []Insight {
	return in.extractor.extract(text)
}

// Markers returns at most four overlay markers for insights.
func (in *Interpreter) Markers(insights []Insight) []AreaMarker {
	return markers(in.cfg.Positions, insights)
}

// Interpret runs the segmenter and the extractor over the same text.
func (in *Interpreter) Interpret(text string) Analysis {
	sections := in.Segment(text)
	insights := in.Insights(text)
	a := Analysis{
		FullText:      text,
		Sections:      sections,
		ConditionRows: make([]ConditionRow, 0, len(sections.Conditions)),
		Insights:      insights,
		Markers:       in.Markers(insights),
	}
	for _, line := range sections.Conditions {
		a.ConditionRows = append(a.ConditionRows, RateConditionLine(line))
	}
	if sections.Empty() {
		a.RawLines = RawLines(text)
	}
	return a
}

// Segment runs the default header cues over text.
func Segment(text string) ReportSections {
	return segmenter{headers: DefaultConfig().Headers}.segment(text)
}
