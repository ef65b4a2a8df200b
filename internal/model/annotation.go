package model

// RiskLabel is the render label attached to a highlighted paragraph
type RiskLabel string

const (
	LabelHighRisk RiskLabel = "HIGH RISK"
	LabelCaution  RiskLabel = "CAUTION"
	LabelReview   RiskLabel = "REVIEW"
)

// Icon returns the glyph rendered next to the label
func (l RiskLabel) Icon() string {
	switch l {
	case LabelHighRisk:
		return "⚠️"
	case LabelCaution:
		return "⚡"
	default:
		return "ℹ️"
	}
}

// Tone returns the color name renderers use for the label
func (l RiskLabel) Tone() string {
	switch l {
	case LabelHighRisk:
		return "red"
	case LabelCaution:
		return "yellow"
	default:
		return "blue"
	}
}

// LabelForRisk maps a clause risk to its label. Unknown risks map to REVIEW.
func LabelForRisk(risk RiskLevel) RiskLabel {
	switch risk {
	case RiskHigh:
		return LabelHighRisk
	case RiskMedium:
		return LabelCaution
	default:
		return LabelReview
	}
}

// MatchSource records which kind of candidate won an annotation
type MatchSource string

const (
	MatchEvidence MatchSource = "evidence" // an evidence quote
	MatchFallback MatchSource = "fallback" // a descriptive clause field
)

// ParagraphAnnotation is the render hint for one source paragraph.
// A paragraph has at most one annotation; nil means nothing crossed a threshold.
type ParagraphAnnotation struct {
	Label       RiskLabel   `json:"label" yaml:"label"`
	Icon        string      `json:"icon" yaml:"icon"`
	Tone        string      `json:"tone" yaml:"tone"`
	ClauseTitle string      `json:"clause_title" yaml:"clause_title"`
	ClauseID    string      `json:"clause_id,omitempty" yaml:"clause_id,omitempty"`
	ClauseIndex int         `json:"clause_index" yaml:"clause_index"` // position in AnalysisResult.Clauses
	Risk        RiskLevel   `json:"risk" yaml:"risk"`
	Score       float64     `json:"score" yaml:"score"`
	Source      MatchSource `json:"source" yaml:"source"`
	Field       string      `json:"field,omitempty" yaml:"field,omitempty"`       // fallback field name, or "quote"
	Location    string      `json:"location,omitempty" yaml:"location,omitempty"` // quote location label, if any
}

// AnnotatedParagraph pairs a source paragraph with its optional annotation
type AnnotatedParagraph struct {
	Index      int                  `json:"index" yaml:"index"`
	Text       string               `json:"text" yaml:"text"`
	Annotation *ParagraphAnnotation `json:"annotation,omitempty" yaml:"annotation,omitempty"`
}
